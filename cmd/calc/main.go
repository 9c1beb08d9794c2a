// Command calc computes the affinity breakdown for a single inheritance
// combination straight from the master database. It exists to verify
// the generated table by hand against what the game shows.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/umadb/affinity/internal/master"
	"github.com/umadb/affinity/internal/util"
	"github.com/umadb/affinity/pkg/affinity"
	"github.com/umadb/affinity/pkg/logger"
	"github.com/umadb/affinity/pkg/logger/console"
)

const usage = `Usage:
  calc <main_id> <left_id> <left_left_id> <left_right_id> [right_id] [right_left_id] [right_right_id] [inheritable_id]

Arguments:
  main_id         - Main character being trained
  left_id         - Legacy 1 (left parent)
  left_left_id    - Sub-Legacy 1-1 (Legacy 1's left parent)
  left_right_id   - Sub-Legacy 1-2 (Legacy 1's right parent)
  right_id        - Optional: Legacy 2 (right parent), use 0 to skip
  right_left_id   - Optional: Sub-Legacy 2-1 (Legacy 2's left parent), use 0 to skip
  right_right_id  - Optional: Sub-Legacy 2-2 (Legacy 2's right parent), use 0 to skip
  inheritable_id  - Optional: specific inheritable character to check

Examples:
  calc 1030 1004 1001 1002                          # Check only Legacy 1 side
  calc 1030 1004 1001 1002 1020 1003 1005           # Check both sides
  calc 1030 1004 1001 1002 1020 1003 1005 1026      # Check both sides + inheritable
`

type request struct {
	main, left, leftLeft, leftRight int
	right, rightLeft, rightRight    int
	inheritable                     int
	hasRightSide                    bool
	hasInheritable                  bool
}

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	req, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	masterPath := util.GetEnv("MASTER_DB_PATH")
	if masterPath == "" {
		logger.Fatal("MASTER_DB_PATH is not set")
	}

	ctx := context.Background()
	db, err := master.Open(masterPath)
	if err != nil {
		logger.Fatal("Failed to open master database", "err", err)
	}
	defer db.Close()

	points, rel, err := db.LoadRelations(ctx)
	if err != nil {
		logger.Fatal("Failed to load relation data", "err", err)
	}
	names, err := db.LoadCharaNames(ctx)
	if err != nil {
		logger.Fatal("Failed to load character names", "err", err)
	}

	model, err := affinity.NewModel(points, rel)
	if err != nil {
		logger.Fatal("Master data rejected", "err", err)
	}

	if err := report(model, names, req); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (request, error) {
	if len(args) < 4 {
		return request{}, fmt.Errorf("expected at least 4 character ids, got %d", len(args))
	}

	ids := make([]int, len(args))
	for i, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return request{}, fmt.Errorf("character ids must be integers: %q", arg)
		}
		ids[i] = id
	}

	req := request{
		main:      ids[0],
		left:      ids[1],
		leftLeft:  ids[2],
		leftRight: ids[3],
	}
	if len(ids) > 4 && ids[4] != 0 {
		req.hasRightSide = true
		req.right = ids[4]
		if len(ids) > 5 {
			req.rightLeft = ids[5]
		}
		if len(ids) > 6 {
			req.rightRight = ids[6]
		}
	}
	if len(ids) > 7 {
		req.inheritable = ids[7]
		req.hasInheritable = true
	}
	return req, nil
}

func report(model *affinity.Model, names map[int]string, req request) error {
	checks := []struct {
		id   int
		role string
	}{
		{req.main, "main"},
		{req.left, "Legacy 1 (left)"},
		{req.leftLeft, "Sub-Legacy 1-1"},
		{req.leftRight, "Sub-Legacy 1-2"},
	}
	if req.hasRightSide {
		checks = append(checks,
			struct {
				id   int
				role string
			}{req.right, "Legacy 2 (right)"},
			struct {
				id   int
				role string
			}{req.rightLeft, "Sub-Legacy 2-1"},
			struct {
				id   int
				role string
			}{req.rightRight, "Sub-Legacy 2-2"},
		)
	}
	if req.hasInheritable {
		checks = append(checks, struct {
			id   int
			role string
		}{req.inheritable, "inheritable"})
	}
	for _, c := range checks {
		if !model.Knows(c.id) {
			return fmt.Errorf("character id %d (%s) not found in master database", c.id, c.role)
		}
	}

	name := func(id int) string {
		if n, ok := names[id]; ok {
			return n
		}
		return fmt.Sprintf("Character %d", id)
	}
	// Every id was checked against the model above, so the lookups
	// below cannot return ErrUnknownChara.
	pair := func(a, b int) int {
		s, _ := model.Pair(a, b)
		return s
	}
	triple := func(a, b, c int) int {
		s, _ := model.Triple(a, b, c)
		return s
	}

	line := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 80)

	fmt.Println(line)
	fmt.Println("Affinity Calculation")
	fmt.Println(line)
	fmt.Printf("Main Character:      %4d - %s\n", req.main, name(req.main))
	fmt.Printf("Legacy 1 (Left):     %4d - %s\n", req.left, name(req.left))
	fmt.Printf("Sub-Legacy 1-1:      %4d - %s\n", req.leftLeft, name(req.leftLeft))
	fmt.Printf("Sub-Legacy 1-2:      %4d - %s\n", req.leftRight, name(req.leftRight))
	if req.hasRightSide {
		fmt.Printf("Legacy 2 (Right):    %4d - %s\n", req.right, name(req.right))
		fmt.Printf("Sub-Legacy 2-1:      %4d - %s\n", req.rightLeft, name(req.rightLeft))
		fmt.Printf("Sub-Legacy 2-2:      %4d - %s\n", req.rightRight, name(req.rightRight))
	} else {
		fmt.Println("Legacy 2 (Right):    (not set)")
	}

	fmt.Println()
	fmt.Println(rule)
	fmt.Println("Affinity Breakdown:")
	fmt.Println()

	comp1 := pair(req.main, req.left)
	fmt.Printf("  Main Char - Legacy 1:           %3d points\n", comp1)
	comp2 := triple(req.main, req.left, req.leftLeft)
	fmt.Printf("  Sub-Legacy 1-1 line:            %3d points\n", comp2)
	comp3 := triple(req.main, req.left, req.leftRight)
	fmt.Printf("  Sub-Legacy 1-2 line:            %3d points\n", comp3)

	total := comp1 + comp2 + comp3
	if req.hasRightSide {
		comp4 := pair(req.main, req.right)
		fmt.Printf("  Main Char - Legacy 2:           %3d points\n", comp4)
		comp5 := triple(req.main, req.right, req.rightLeft)
		fmt.Printf("  Sub-Legacy 2-1 line:            %3d points\n", comp5)
		comp6 := triple(req.main, req.right, req.rightRight)
		fmt.Printf("  Sub-Legacy 2-2 line:            %3d points\n", comp6)
		total += comp4 + comp5 + comp6

		// Shown for reference only; the in-game total excludes it.
		raceAffinity := pair(req.left, req.right)
		fmt.Printf("  Legacies' affinity (excluded):  %3d points\n", raceAffinity)
	} else {
		fmt.Println("  (Legacy 2 side not calculated)")
	}

	fmt.Println()
	fmt.Printf("  Total Affinity (excl. race):   %3d points\n", total)

	level := affinity.Level(total)
	fmt.Printf("\n  -> Affinity Level: %d %s\n", level, affinity.LevelSymbol(level))
	if needed, ok := affinity.NextThreshold(total); ok {
		fmt.Printf("     %d more points needed for Level %d (%s)\n",
			needed, level+1, affinity.LevelSymbol(level+1))
	} else {
		fmt.Println("     Maximum level reached!")
	}

	fmt.Println()
	fmt.Println(rule)
	fmt.Println("Affinity Level Reference:")
	fmt.Printf("  Level 1 (%s):        0 -   9 points\n", affinity.LevelSymbol(1))
	fmt.Printf("  Level 2 (%s):      10 -  59 points\n", affinity.LevelSymbol(2))
	fmt.Printf("  Level 3 (%s):      60 - 109 points\n", affinity.LevelSymbol(3))
	fmt.Printf("  Level 4 (%s):    110+     points\n", affinity.LevelSymbol(4))

	if req.hasInheritable {
		fmt.Println()
		fmt.Println(rule)
		fmt.Printf("Inheritable Character Analysis: %4d - %s\n", req.inheritable, name(req.inheritable))

		inhComp1 := pair(req.inheritable, req.main)
		inhComp2 := triple(req.inheritable, req.main, req.left)
		inhTotal := inhComp1 + inhComp2

		fmt.Printf("\n  Inheritable x Main:             %3d points\n", inhComp1)
		fmt.Printf("  Inheritable x Main + Legacy 1:  %3d points\n", inhComp2)
		if req.hasRightSide {
			inhComp3 := triple(req.inheritable, req.main, req.right)
			inhTotal += inhComp3
			fmt.Printf("  Inheritable x Main + Legacy 2:  %3d points\n", inhComp3)
		}
		fmt.Printf("\n  Inheritable Total:              %3d points\n", inhTotal)
	}

	fmt.Println(line)
	return nil
}
