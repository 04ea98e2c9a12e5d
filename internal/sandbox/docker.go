package sandbox

import (
	"fmt"
	"path"
)

// ContainerPrefix prefixes the name of every sandbox container.
const ContainerPrefix = "llhd-"

// DockerBuilder runs the compiler in a throwaway container with no network,
// no capabilities beyond DAC_OVERRIDE and capped memory and pids.
type DockerBuilder struct {
	Policy Policy
	Flags  []string
}

func (d *DockerBuilder) Build(ws *Workspace, module string) Command {
	p := d.Policy
	mounted := path.Join(p.WorkDir, InputFileName)
	name := ContainerName(ws)

	args := []string{
		"run", "--rm",
		"--cap-drop=ALL",
		"--cap-add=DAC_OVERRIDE",
		"--security-opt=no-new-privileges",
		"--workdir", p.WorkDir,
		"--net", "none",
		"--memory", p.MemoryLimit,
		"--memory-swap", p.MemorySwapLimit,
		"--env", fmt.Sprintf("PLAYGROUND_TIMEOUT=%d", int(p.Timeout.Seconds())),
		"--pids-limit", fmt.Sprintf("%d", p.PidsLimit),
		"--name", name,
		"--volume", ws.InputFile + ":" + mounted,
		p.Image,
		p.Compiler, InputFileName,
		"-e", module,
	}
	args = append(args, d.Flags...)

	return NewCommand("docker", args, "").WithAbort("docker", "kill", name)
}

// ContainerName returns the name of the container compiling ws.
func ContainerName(ws *Workspace) string {
	return ContainerPrefix + ws.ID
}
