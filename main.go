// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/beevik/term"
	"github.com/m65xx/hwcheck/cpu"
	"github.com/m65xx/hwcheck/host"
	"github.com/sirupsen/logrus"
)

var (
	arch     string
	logLevel string
	hexMode  bool
)

func init() {
	flag.StringVar(&arch, "arch", "6502", "CPU architecture (6502 or 65c02)")
	flag.StringVar(&logLevel, "loglevel", "info", "verification log level")
	flag.BoolVar(&hexMode, "hex", false, "hexadecimal input mode")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: hwcheck [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	a, err := cpu.ParseArchitecture(arch)
	if err != nil {
		exitOnError(err)
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		exitOnError(err)
	}

	h := host.New()
	h.SetArchitecture(a)
	h.SetLogLevel(level)
	h.SetHexMode(hexMode)

	// Run commands contained in command-line files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		cont := h.RunCommands(file, os.Stdout, false)
		file.Close()
		if !cont {
			return
		}
	}

	// Run commands from stdin, prompting only when a user is typing them.
	h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
