// Command matrixcollector interactively builds a matrix.json by having
// the user tap keys on a physical keyboard in order.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"layerkbd/inputdevice"
	"layerkbd/scancodes"
)

const instructions = `Matrix Collector
----------------
This tool organizes your keyboard's keys into an NxM matrix.

Instructions:
  1. Start at the top left of the keyboard and press every key on the first row.
  2. Tap the last key on the row twice to start the next row.
  3. Tap the last key on the last row three times to finish.

In short:
  One tap   -> collect key
  Two taps  -> go to next row
  Three taps -> finish
`

func main() {
	devicePath := flag.StringP("device", "D", "/dev/input/event0", "Physical keyboard device node")
	outPath := flag.StringP("out", "o", "matrix.json", "Output matrix.json path")
	flag.Parse()

	fmt.Print(instructions)

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	matrix, err := collect(*devicePath, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := writeMatrix(*outPath, matrix); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d rows)\n", *outPath, len(matrix))
}

// collect reads taps from the named device until the user finishes,
// returning the collected matrix as rows of evdev codes.
func collect(devicePath string, log *slog.Logger) ([][]uint16, error) {
	dev, err := inputdevice.Open(devicePath, log)
	if err != nil {
		return nil, err
	}
	if err := dev.Grab(); err != nil {
		return nil, fmt.Errorf("grabbing %s: %w", devicePath, err)
	}
	defer dev.Release()

	fmt.Printf("Grabbed exclusive access to %q; begin pressing keys...\n", devicePath)
	go dev.Run()

	matrix := [][]uint16{{}}
	var lastKey uint16
	var lastKeyPresses int
	haveLastKey := false

	for ev := range dev.Events {
		if !ev.Down {
			continue
		}

		if haveLastKey && ev.Code == lastKey {
			lastKeyPresses++
		} else {
			lastKey = ev.Code
			lastKeyPresses = 1
			haveLastKey = true
		}

		switch lastKeyPresses {
		case 1:
			row := len(matrix) - 1
			matrix[row] = append(matrix[row], lastKey)
			fmt.Printf("  collected %s\n", scancodes.Name(lastKey))
		case 2:
			matrix = append(matrix, []uint16{})
			fmt.Println("  -- new row --")
		case 3:
			matrix = matrix[:len(matrix)-1] // drop the trailing empty row
			return matrix, nil
		}
	}
	return nil, fmt.Errorf("device closed before collection finished")
}

func writeMatrix(path string, matrix [][]uint16) error {
	fields := make(map[string][2]int)
	for row, keys := range matrix {
		for col, code := range keys {
			fields[fmt.Sprint(code)] = [2]int{row, col}
		}
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding matrix: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
