package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chimera-nas/xdrzcc"
)

var rootCmd = &cobra.Command{
	Use:   "xdrzcc [flags] input.x output.c output.h",
	Short: "A zero-copy XDR compiler.",
	Long: "Compiles an XDR interface definition into C marshalling code over\n" +
		"scatter/gather buffer lists, with optional RPC program scaffolding.",
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		inputPath, sourcePath, headerPath := args[0], args[1], args[2]

		if dumpAST, _ := cmd.Flags().GetBool("dump-ast"); dumpAST {
			doc, err := xdrzcc.ParseFile(inputPath)
			if err != nil {
				log.Error(err)
				os.Exit(1)
			}
			fmt.Print(doc.PrettyString())
			return
		}

		opts := xdrzcc.Options{}
		opts.EmitRPC2, _ = cmd.Flags().GetBool("rpc2")

		if err := xdrzcc.CompileFile(inputPath, sourcePath, headerPath, opts); err != nil {
			log.Error(err)
			os.Exit(1)
		}
	},
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	rootCmd.Flags().BoolP("rpc2", "r", false, "additionally emit RPC program scaffolding")
	rootCmd.Flags().Bool("dump-ast", false, "print the parsed AST and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
