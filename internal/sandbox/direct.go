package sandbox

// DirectBuilder runs the compiler on the host against the workspace file.
// It offers no isolation at all.
type DirectBuilder struct {
	Compiler string
	Flags    []string
}

func (d *DirectBuilder) Build(ws *Workspace, module string) Command {
	args := []string{ws.InputFile, "-e", module}
	args = append(args, d.Flags...)
	return NewCommand(d.Compiler, args, ws.Dir)
}
