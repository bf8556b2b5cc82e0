// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kawachess/pkg/robot"
)

var uploadExec bool

var uploadCmd = &cobra.Command{
	Use:   "upload <file.as>",
	Short: "Upload an AS program to the controller",
	Long: `Uploads a program source file through the controller's chunked
editor transfer. With --exec the program is executed after the upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadExec, "exec", false, "Execute the program after uploading")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	prog, err := robot.NewProgram(string(source))
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	session := newSession(cfg, logger, nil, false)
	if err := session.Connect(); err != nil {
		return err
	}
	defer session.Close()

	if err := session.LoadProgram(prog); err != nil {
		return err
	}
	fmt.Printf("Uploaded %s (%d bytes).\n", prog.Name, len(prog.Source()))

	if uploadExec {
		res, err := session.ExecProgram(prog)
		if err != nil {
			return err
		}
		fmt.Printf("Program %s.\n", res)
	}
	return nil
}
