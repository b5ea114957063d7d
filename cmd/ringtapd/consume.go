package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanet-platform/shmring/pkg/ring"
	"github.com/yanet-platform/shmring/pkg/shm"
)

var consumeFlags struct {
	out         string
	pollEvery   time.Duration
	attachRetry time.Duration
}

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Attach to an existing ring and drain records as they arrive",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConsume(cmd.Context())
	},
}

func init() {
	consumeCmd.Flags().StringVar(&consumeFlags.out, "out", "", "optional zstd-compressed capture file to write decoded payloads to")
	consumeCmd.Flags().DurationVar(&consumeFlags.pollEvery, "poll-interval", 2*time.Millisecond, "polling cadence for checking whether the ring has reached its hi watermark")
	consumeCmd.Flags().DurationVar(&consumeFlags.attachRetry, "attach-timeout", 10*time.Second, "how long to retry attaching before giving up")
}

func runConsume(ctx context.Context) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	attachCtx, cancelAttach := context.WithTimeout(ctx, consumeFlags.attachRetry)
	region, r, err := shm.OpenWithRetry(attachCtx, cfg.MemoryPath)
	cancelAttach()
	if err != nil {
		return fmt.Errorf("failed to attach to %s: %w", cfg.MemoryPath, err)
	}

	var capture *captureWriter
	if consumeFlags.out != "" {
		capture, err = newCaptureWriter(consumeFlags.out)
		if err != nil {
			region.Close()
			r.Close()
			return err
		}
	}

	notifier := shm.NewPollNotifier(r, consumeFlags.pollEvery)
	defer func() {
		toClose := []closer{notifier, r, region}
		if capture != nil {
			toClose = append(toClose, capture)
		}
		if cerr := closeAll(toClose...); cerr != nil {
			log.Warnw("teardown error", "err", cerr)
		}
	}()

	consumer := ring.NewConsumer(r, notifier).WithLogger(log.Desugar())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		err := waitInterrupted(ctx)
		log.Infow("caught signal, stopping consumer", "err", err)
		cancel()
	}()

	var records, bytes uint64
	handle := func(rec ring.Record) error {
		records++
		bytes += uint64(len(rec.Payload))

		if rec.Type == ring.RecordDROP {
			dp := ring.DecodeDropPayload(rec.Payload)
			log.Warnw("drop burst observed", "lost", dp.Lost, "start_ns", dp.StartNS, "end_ns", dp.EndNS)
			return nil
		}

		if capture != nil {
			if err := capture.Write(rec.Payload); err != nil {
				return fmt.Errorf("failed to write capture: %w", err)
			}
		}

		logDecoded(log, rec.Payload)
		return nil
	}

	err = consumer.Run(ctx, handle)
	log.Infow("consumer finished", "records", records, "bytes", bytes)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// logDecoded is a best-effort demo decode of the synthetic Ethernet/IPv4/UDP
// frames produce emits; it never fails the consume loop on a decode error
// since the ring carries opaque payloads and may contain anything.
func logDecoded(log *zap.SugaredLogger, payload []byte) {
	pkt := gopacket.NewPacket(payload, layers.LayerTypeEthernet, gopacket.NoCopy)
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return
	}
	udp := udpLayer.(*layers.UDP)
	var seq uint64
	if len(udp.Payload) >= 8 {
		seq = binary.BigEndian.Uint64(udp.Payload[:8])
	}
	log.Debugw("decoded packet", "src_port", udp.SrcPort, "dst_port", udp.DstPort, "seq", seq)
}

// captureWriter appends raw payloads to a zstd-compressed file as
// length-prefixed frames, the SPEC_FULL.md capture-export path that exercises
// klauspost/compress independently of gopacket's own (indirect) use of it.
type captureWriter struct {
	f   *os.File
	enc *zstd.Encoder
}

func newCaptureWriter(path string) (*captureWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &captureWriter{f: f, enc: enc}, nil
}

func (c *captureWriter) Write(payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := c.enc.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := c.enc.Write(payload)
	return err
}

func (c *captureWriter) Close() error {
	encErr := c.enc.Close()
	fErr := c.f.Close()
	if encErr != nil {
		return encErr
	}
	return fErr
}
