// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/gnss"
	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/track"
)

func usage() {
	flag.CommandLine.Usage()
}

func main() {
	var socket string
	flag.StringVar(&socket, "s", "/var/run/gnss_watch.sock", "Path to the gnss_watch socket.")
	var trackPath string
	flag.StringVar(&trackPath, "t", "/var/lib/gnss_watch/track.db", "Path to the track log.")
	var since time.Duration
	flag.DurationVar(&since, "since", time.Hour, "How far back \"track\" should go.")
	var version int
	flag.IntVar(&version, "v", 2, "Protocol version \"fixes\" assembles with.")

	var help bool
	flag.BoolVar(&help, "h", false, "Print help and quit.")

	flag.Usage = func() {
		fmt.Println("usage: gnssctl [OPTION...] COMMAND ")
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("Commands:")
		fmt.Printf("  %-12s\t%s\n", "watch", "Print events from the gnss_watch socket.")
		fmt.Printf("  %-12s\t%s\n", "track", "Print the logged positions.")
		fmt.Printf("  %-12s\t%s\n", "fixes [FILE]", "Print the fixes in an NMEA log, read from stdin without FILE.")
		fmt.Printf("  %-12s\t%s\n", "distance <lat1> <lon1> <lat2> <lon2>", "Print the distance between two points in meters.")
	}

	flag.Parse()

	if help {
		usage()
		return
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "watch":
		err = watch(socket, os.Stdout)
	case "track":
		err = dumpTrack(trackPath, since, os.Stdout)
	case "fixes":
		in := io.Reader(os.Stdin)
		if flag.Arg(1) != "" {
			f, ferr := os.Open(flag.Arg(1))
			if ferr != nil {
				log.Fatal(ferr)
			}
			defer f.Close()
			in = f
		}
		err = fixes(in, fix.ProtocolVersion(version), os.Stdout)
	case "distance":
		if len(flag.Args()) < 5 {
			usage()
			return
		}
		err = distance(flag.Args()[1:5], os.Stdout)
	default:
		if cmd != "" {
			fmt.Printf("Unknown command: %q\n", cmd)
		}
		usage()
		return
	}

	if err != nil {
		log.Fatal(err)
	}
}

func watch(socket string, out io.Writer) error {
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer conn.Close()

	_, err = io.Copy(out, conn)
	return err
}

func dumpTrack(path string, since time.Duration, out io.Writer) error {
	tr, err := track.Open(path)
	if err != nil {
		return err
	}
	defer tr.Close()

	now := time.Now()
	ps, err := tr.Range(now.Add(-since), now)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, p := range ps {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

// fixes prints every epoch in r that passes validation, one JSON position
// per line.
func fixes(r io.Reader, version fix.ProtocolVersion, out io.Writer) error {
	asm := gnss.NewAssembler(version)
	enc := json.NewEncoder(out)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		done, err := asm.Feed(scanner.Text())
		if err != nil || !done {
			continue
		}
		c, ts, ok := fix.Validate(asm.Fix())
		if !ok {
			continue
		}
		if err := enc.Encode(location.Position[location.Coordinate]{Location: c, Timestamp: ts}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func distance(args []string, out io.Writer) error {
	var v [4]float64
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid argument %q: %w", a, err)
		}
		v[i] = f
	}

	from, err := location.NewCoordinate(v[0], v[1])
	if err != nil {
		return err
	}
	to, err := location.NewCoordinate(v[2], v[3])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%.3f\n", location.Distance(from, to))
	return err
}
