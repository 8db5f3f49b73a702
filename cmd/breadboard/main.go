package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/breadboard-emu/breadboard/avr"
	"github.com/breadboard-emu/breadboard/emulator"
)

func main() {
	var compile string
	var hexfile string
	var binfile string
	var cfgfile string
	var steps int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble and run")
	flag.StringVar(&hexfile, "x", "", ".hex file to load")
	flag.StringVar(&binfile, "b", "", ".bin file to load")
	flag.StringVar(&cfgfile, "config", "", "Configuration file")
	flag.IntVar(&steps, "n", 0, "Maximum steps to execute (0 for unlimited)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if cfgfile == "" {
		path, err := emulator.ConfigPath()
		if err == nil {
			cfgfile = path
		}
	}

	cfg, err := emulator.LoadConfig(cfgfile)
	if err != nil {
		log.Fatalf("%v: %v", cfgfile, err)
	}

	emu := emulator.New()
	emu.Config = cfg
	emu.Verbose = verbose

	// Assemble a new program image.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &avr.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	err = emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	if len(hexfile) != 0 {
		inf, err := os.Open(hexfile)
		if err != nil {
			log.Fatalf("%v: %v", hexfile, err)
		}
		defer inf.Close()

		err = emu.Mcu.LoadHex(inf)
		if err != nil {
			log.Fatalf("%v: %v", hexfile, err)
		}
	}

	if len(binfile) != 0 {
		data, err := os.ReadFile(binfile)
		if err != nil {
			log.Fatalf("%v: %v", binfile, err)
		}

		err = emu.Mcu.LoadBinary(data)
		if err != nil {
			log.Fatalf("%v: %v", binfile, err)
		}
	}

	// Free runs are paced by the configured tick rate; a -n step count
	// runs unpaced.
	var tick <-chan time.Time
	if steps == 0 && cfg.Run.TicksPerSecond > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(cfg.Run.TicksPerSecond))
		defer ticker.Stop()
		tick = ticker.C
	}

	batch := int(cfg.Run.InstructionsPerTick)
	if batch < 1 {
		batch = 1
	}

run:
	for n := 0; steps == 0 || n < steps; {
		if tick != nil {
			<-tick
		}
		for range batch {
			done, err := emu.Step()
			if err != nil {
				log.Fatal(err)
			}
			if done {
				break run
			}
			n += 1
			if steps != 0 && n >= steps {
				break
			}
		}
	}

	fmt.Printf("cycles: %v\n%v", emu.Cycles, emu.Mcu)
}
