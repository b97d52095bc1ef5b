// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	pe "github.com/afp33/pex"
	"github.com/spf13/cobra"
)

var (
	wantAll       bool
	wantDosHeader bool
	wantNtHeader  bool
	wantSections  bool
	wantExports   bool
	wantImports   bool
	wantDirs      bool
)

func prettyPrint(v interface{}) string {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		log.Println("JSON marshal error:", err)
		return fmt.Sprintf("%v", v)
	}
	return string(buf)
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func dumpFile(filename string) {
	log.Printf("Processing %s", filename)

	img, err := pe.New(filename)
	if err != nil {
		log.Printf("error opening %s: %v", filename, err)
		return
	}

	if wantDosHeader || wantAll {
		dos := img.DOSHeader()
		magic, _ := dos.Magic()
		lfanew, _ := dos.AddressOfNewEXEHeader()
		fmt.Printf("DOS header: magic=0x%04x e_lfanew=0x%x\n", magic, lfanew)
	}

	if wantNtHeader || wantAll {
		oh, err := img.OptionalHeader()
		if err != nil {
			log.Println("optional header:", err)
		} else {
			ep, _ := oh.AddressOfEntryPoint()
			base, _ := oh.ImageBase()
			fmt.Printf("NT header: is64=%v entrypoint=0x%x imagebase=0x%x\n", oh.Is64Bit(), ep, base)
		}
	}

	if wantSections || wantAll {
		sections, err := img.Sections()
		if err != nil {
			log.Println("sections:", err)
		} else {
			fmt.Println(prettyPrint(sections))
		}
	}

	if wantDirs || wantAll {
		dd, err := img.DataDirectory()
		if err != nil {
			log.Println("data directory:", err)
		} else {
			entries, err := dd.Entries()
			if err != nil {
				log.Println("data directory entries:", err)
			} else {
				fmt.Println(prettyPrint(entries))
			}
		}
	}

	if wantExports || wantAll {
		exports, err := img.Export()
		if err != nil {
			log.Println("exports:", err)
		} else {
			fmt.Println(prettyPrint(exports))
		}
	}

	if wantImports || wantAll {
		imports, err := img.Imports()
		if err != nil {
			log.Println("imports:", err)
		} else {
			fmt.Println(prettyPrint(imports))
		}
	}
}

func dump(cmd *cobra.Command, args []string) {
	for _, target := range args {
		if !isDirectory(target) {
			dumpFile(target)
			continue
		}

		var files []string
		filepath.Walk(target, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		for _, f := range files {
			dumpFile(f)
		}
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pexdump",
		Short: "A Portable Executable file navigator",
		Long:  "pexdump reads and dumps the structure of Portable Executable (PE/COFF) images",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("pexdump version 0.1.0")
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <file-or-directory>",
		Short: "Dump the structure of a PE file",
		Args:  cobra.MinimumNArgs(1),
		Run:   dump,
	}

	dumpCmd.Flags().BoolVarP(&wantDosHeader, "dosheader", "", false, "dump the DOS header")
	dumpCmd.Flags().BoolVarP(&wantNtHeader, "ntheader", "", false, "dump the NT header")
	dumpCmd.Flags().BoolVarP(&wantSections, "sections", "", false, "dump section headers")
	dumpCmd.Flags().BoolVarP(&wantDirs, "directories", "", false, "dump the data directory table")
	dumpCmd.Flags().BoolVarP(&wantExports, "exports", "", false, "dump exported functions")
	dumpCmd.Flags().BoolVarP(&wantImports, "imports", "", false, "dump imported modules")
	dumpCmd.Flags().BoolVarP(&wantAll, "all", "", false, "dump everything")

	rootCmd.AddCommand(versionCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
