package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/mau"
	"github.com/p4lang/p4c-sub024/match"
	"github.com/p4lang/p4c-sub024/target"
	"github.com/p4lang/p4c-sub024/value"
)

// errFailed is returned once the problems have already been reported.
var errFailed = errors.New("failed")

// NewRoot returns the bfasm command with its subcommands.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "bfasm",
		Short:         "bfasm assembles match-action stages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  bfasm assemble -o out prog.bfa
  bfasm tree prog.bfa
  bfasm match 0b10*0 0x5*`,
	}
	root.AddCommand(assembleCommand(), treeCommand(), matchCommand())
	return root
}

type loadOptions struct {
	target string
	debug  bool
}

func (o *loadOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.target, "target", "", "target chip ("+strings.Join(target.Names(), ", ")+"); overrides the input's target")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "dump the parsed input")
}

// compile parses and compiles path, reporting problems to stderr. The
// passes run even after Load reports errors so one run reports them all.
// It returns errFailed if any error was reported.
func (o *loadOptions) compile(cmd *cobra.Command, path string) (*mau.Pipeline, error) {
	v, err := value.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if o.debug {
		pp.Fprintf(cmd.ErrOrStderr(), "%v\n", v)
	}

	sink := diag.NewSink(path, cmd.ErrOrStderr())
	defer diag.Use(sink)()

	name := o.target
	if name == "" {
		name = mau.TargetName(v)
	}
	if name == "" {
		name = target.Tofino.Name
	}
	tp, err := target.Lookup(name)
	if err != nil {
		return nil, err
	}

	prog := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pipe := mau.New(prog, tp)
	pipe.Load(v)
	pipe.Compile()
	if sink.Failed() {
		return nil, errFailed
	}
	return pipe, nil
}

func assembleCommand() *cobra.Command {
	var opts loadOptions
	var outDir string
	var regs bool
	cmd := &cobra.Command{
		Use:   "assemble <input>",
		Short: "Assemble an input file into a .bfa listing and context.json.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := opts.compile(cmd, args[0])
			if err != nil {
				return err
			}
			return writeOutputs(pipe, outDir, regs)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&regs, "regs", false, "also write regs.txt")
	return cmd
}

// writeOutputs renders everything before creating any file.
func writeOutputs(pipe *mau.Pipeline, dir string, withRegs bool) error {
	files := make(map[string]*bytes.Buffer)
	var order []string
	add := func(name string) *bytes.Buffer {
		buf := &bytes.Buffer{}
		files[name] = buf
		order = append(order, name)
		return buf
	}

	if _, err := pipe.WriteAsm(add(pipe.Name + ".bfa")); err != nil {
		return errors.Wrap(err, "rendering listing")
	}
	if err := ctxjson.Print(add("context.json"), pipe.ContextJSON()); err != nil {
		return errors.Wrap(err, "rendering context.json")
	}
	if withRegs {
		r := mau.NewRegisters()
		pipe.WriteRegs(r)
		if _, err := r.Dump(add("regs.txt")); err != nil {
			return errors.Wrap(err, "rendering registers")
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	for _, name := range order {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name].Bytes(), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

func treeCommand() *cobra.Command {
	var opts loadOptions
	cmd := &cobra.Command{
		Use:   "tree <input>",
		Short: "Display the stages and next tables of an input file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := opts.compile(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), pipe.Tree().String())
			return err
		},
	}
	opts.addFlags(cmd)
	return cmd
}

// maxListed bounds the values the match command lists for one pattern.
const maxListed = 16

func matchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "match <pattern>...",
		Short: "Print the canonical form of match patterns and the values they match.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			for _, arg := range args {
				w, err := match.ParseWide(arg)
				if err != nil {
					return err
				}
				fmt.Fprintf(&buf, "%s: %s width %d", arg, w, w.Width())
				if m, ok := w.Narrow(); ok {
					var vals []string
					it := m.Iter()
					for len(vals) <= maxListed {
						v, ok := it.Next()
						if !ok {
							break
						}
						vals = append(vals, fmt.Sprintf("%d", v))
					}
					if len(vals) > maxListed {
						vals = append(vals[:maxListed], "...")
					}
					fmt.Fprintf(&buf, " matches %s", strings.Join(vals, " "))
				}
				buf.WriteByte('\n')
			}
			_, err := buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
