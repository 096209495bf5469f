// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bvgraph is a small test and benchmark driver for the
// bvgraph library, the CLI surface described in spec.md §6:
//
//	bvgraph <base> random N
//	bvgraph <base> head-tail
//	bvgraph <base> all
//	bvgraph <base> perform N
//	bvgraph <base> iter
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/dsnet/bvgraph"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: bvgraph <base> {random N | head-tail | all | perform N | iter}")
	}
	base, cmd, rest := args[0], args[1], args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	offsetStep := offsetStepFor(cmd)
	g, err := bvgraph.Load(base, offsetStep)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer g.Close()

	switch cmd {
	case "random":
		return cmdRandom(g, rest)
	case "head-tail":
		return cmdHeadTail(g)
	case "all":
		return cmdAll(ctx, g)
	case "perform":
		return cmdPerform(g, rest)
	case "iter":
		return cmdIter(ctx, g)
	default:
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

// offsetStepFor picks a load policy sufficient for the subcommand:
// sequential-only commands never pay for an offsets index.
func offsetStepFor(cmd string) int {
	switch cmd {
	case "all", "iter":
		return 0
	default:
		return 2
	}
}

func cmdRandom(g *bvgraph.Graph, args []string) error {
	n, err := parseCount(args)
	if err != nil {
		return err
	}
	ra, err := g.RandomAccess()
	if err != nil {
		return err
	}
	props := g.Properties()
	for i := 0; i < n; i++ {
		x := int64(rand.Intn(int(props.Nodes)))
		succ, err := ra.Successors(x)
		if err != nil {
			return fmt.Errorf("successors(%d): %w", x, err)
		}
		fmt.Printf("%d: %v\n", x, succ)
	}
	return nil
}

func cmdHeadTail(g *bvgraph.Graph) error {
	ra, err := g.RandomAccess()
	if err != nil {
		return err
	}
	props := g.Properties()
	if props.Nodes == 0 {
		fmt.Println("(empty graph)")
		return nil
	}
	head, err := ra.Successors(0)
	if err != nil {
		return err
	}
	tail, err := ra.Successors(props.Nodes - 1)
	if err != nil {
		return err
	}
	fmt.Printf("0: %v\n", head)
	fmt.Printf("%d: %v\n", props.Nodes-1, tail)
	return nil
}

func cmdAll(ctx context.Context, g *bvgraph.Graph) error {
	it := g.Iterator()
	for it.NextContext(ctx) {
		fmt.Printf("%d: %v\n", it.Vertex(), it.Successors())
	}
	return it.Err()
}

func cmdIter(ctx context.Context, g *bvgraph.Graph) error {
	start := time.Now()
	it := g.Iterator()
	var n, m int64
	for it.NextContext(ctx) {
		n++
		m += int64(len(it.Successors()))
	}
	if err := it.Err(); err != nil {
		return err
	}
	elapsed := time.Since(start)
	fmt.Printf("visited %d vertices, %d arcs, in %s (%.0f vertices/s)\n",
		n, m, elapsed, float64(n)/elapsed.Seconds())
	return nil
}

func cmdPerform(g *bvgraph.Graph, args []string) error {
	n, err := parseCount(args)
	if err != nil {
		return err
	}
	ra, err := g.RandomAccess()
	if err != nil {
		return err
	}
	props := g.Properties()
	if props.Nodes == 0 {
		fmt.Println("(empty graph)")
		return nil
	}
	start := time.Now()
	var arcs int64
	for i := 0; i < n; i++ {
		x := int64(rand.Intn(int(props.Nodes)))
		succ, err := ra.Successors(x)
		if err != nil {
			return fmt.Errorf("successors(%d): %w", x, err)
		}
		arcs += int64(len(succ))
	}
	elapsed := time.Since(start)
	fmt.Printf("%d random accesses, %d arcs, in %s (%.0f accesses/s)\n",
		n, arcs, elapsed, float64(n)/elapsed.Seconds())
	return nil
}

func parseCount(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a single count argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", args[0])
	}
	return n, nil
}
