// cmd/neptun-emulator/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/emulator"
	"github.com/titovskiy/NeptunSmart/internal/logging"
	"github.com/titovskiy/NeptunSmart/internal/registers"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:1502", "Modbus/TCP listen address")
	unit := flag.Uint("unit", 240, "unit id to answer")
	delay := flag.Duration("delay", 0, "latency added to every request")
	flag.Parse()

	log := logging.New("info", "console", os.Stderr).With().Str("component", "emulator").Logger()

	if *unit == 0 || *unit > 247 {
		log.Fatal().Uint("unit", *unit).Msg("unit id must be 1..247")
	}

	emu, err := emulator.New(emulator.Config{Listen: *listen, UnitID: uint8(*unit)})
	if err != nil {
		log.Fatal().Err(err).Msg("emulator setup failed")
	}
	emulator.Seed(emu.Bank())
	emu.Bank().SetDelay(*delay)

	if err := emu.Start(); err != nil {
		log.Fatal().Err(err).Msg("emulator start failed")
	}
	log.Info().Str("listen", *listen).Uint("unit", *unit).Msg("serving Neptun Smart controller")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = emu.Stop()
			log.Info().Msg("stopped")
			return
		case <-t.C:
			// counter 1 consumes 1 liter every tick
			b := emu.Bank()
			addr := registers.WaterCounterAddress(1)
			v := uint32(b.Get(addr))<<16 | uint32(b.Get(addr+1))
			v++
			b.Set(addr, uint16(v>>16))
			b.Set(addr+1, uint16(v))

			reads, writes := b.Counts()
			log.Debug().Int("reads", reads).Int("writes", writes).Msg("tick")
		}
	}
}
