// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command l1ir-inspect prints summary statistics for a snapshot produced
// by package snapshot. It exists purely as a debugging aid, outside the
// evaluation core, the way the pack's own cmd/dump tool sits outside its
// ion package.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/l1lang/ir/snapshot"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, arg := range args {
		if err := inspect(arg); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", arg, err)
			os.Exit(1)
		}
	}
}

func inspect(arg string) error {
	var f *os.File
	if arg == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	stats, err := snapshot.Read(bufio.NewReader(f))
	if err != nil {
		return err
	}
	fmt.Printf("blocks:      %d\n", stats.BlockCount)
	fmt.Printf("slots:       %d\n", stats.SlotCount)
	fmt.Printf("digest ok:   %v\n", stats.DigestMatchesBody)
	for typ, count := range stats.BlockCountByType {
		fmt.Printf("  %-16s %d\n", typ, count)
	}
	return nil
}
