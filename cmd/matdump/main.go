// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"

	readmat "github.com/foreverallama/readmat"
)

var (
	rawData  bool
	vars     []string
	asJSON   bool
	hashVars bool
)

func prettyPrint(buf []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return out.String()
}

func dumpFile(filename string) error {
	f, err := readmat.Open(filename, &readmat.Options{
		RawData:       rawData,
		VariableNames: vars,
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	for name, v := range f.Vars {
		if hashVars {
			fmt.Printf("%s\t%016x\n", name, hashVariable(name, v))
			continue
		}
		if asJSON {
			buf, err := json.Marshal(v)
			if err != nil {
				log.Printf("marshalling %s: %v", name, err)
				continue
			}
			fmt.Printf("%s:\n%s\n", name, prettyPrint(buf))
			continue
		}
		fmt.Printf("%s: %#v\n", name, v)
	}
	return nil
}

// hashVariable hashes a variable's name together with its JSON encoding,
// giving a cheap stable fingerprint for diffing two dumps of the same file
// across runs without comparing full JSON blobs. A value JSON cannot encode
// (for example one holding NaN or Inf) is hashed from its Go-syntax
// representation instead, which renders nested values by pointer address and
// so is not stable across runs.
func hashVariable(name string, v readmat.Value) uint64 {
	h := xxhash.New()
	h.WriteString(name)
	if buf, err := json.Marshal(v); err == nil {
		h.Write(buf)
	} else {
		h.WriteString(fmt.Sprintf("%#v", v))
	}
	return h.Sum64()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "matdump",
		Short: "Dump variables from a MATLAB MAT-file",
		Long:  "matdump decodes a MAT-file's variables, resolving the MCOS subsystem where present.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("matdump 0.1.0")
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [files...]",
		Short: "Dump one or more MAT-files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var firstErr error
			for _, filename := range args {
				if err := dumpFile(filename); err != nil {
					log.Println(err)
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			return firstErr
		},
	}
	dumpCmd.Flags().BoolVar(&rawData, "raw", false, "disable class-aware conversion of MCOS objects")
	dumpCmd.Flags().StringSliceVar(&vars, "var", nil, "restrict output to the named variables")
	dumpCmd.Flags().BoolVar(&asJSON, "json", false, "print variables as pretty-printed JSON")
	dumpCmd.Flags().BoolVar(&hashVars, "hash", false, "print a content hash per variable instead of its value")

	rootCmd.AddCommand(versionCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
