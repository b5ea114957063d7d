package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/shmring/pkg/ring"
	"github.com/yanet-platform/shmring/pkg/shm"
)

var produceFlags struct {
	count   uint64
	rateHz  float64
	snaplen int
}

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Create the ring and push synthetic packets into it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProduce(cmd.Context())
	},
}

func init() {
	produceCmd.Flags().Uint64Var(&produceFlags.count, "count", 0, "number of packets to emit (0 = until interrupted)")
	produceCmd.Flags().Float64Var(&produceFlags.rateHz, "rate", 0, "packets per second; 0 means as fast as possible")
	produceCmd.Flags().IntVar(&produceFlags.snaplen, "snaplen", 128, "bytes of synthetic UDP payload per packet")
}

func runProduce(ctx context.Context) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	region, err := shm.Create(cfg.MemoryPath, uint64(cfg.RingSize))
	if err != nil {
		return fmt.Errorf("failed to create shared-memory region: %w", err)
	}

	r, err := ring.New(region, ring.Config{
		Size:  uint64(cfg.RingSize),
		HiPct: cfg.HiWatermarkPct,
		LoPct: cfg.LoWatermarkPct,
	})
	if err != nil {
		region.Close()
		return fmt.Errorf("failed to initialize ring: %w", err)
	}
	defer func() {
		if cerr := closeAll(r, region); cerr != nil {
			log.Warnw("teardown error", "err", cerr)
		}
	}()

	log.Infow("ring created", "path", cfg.MemoryPath, "size", cfg.RingSize, "hi_pct", cfg.HiWatermarkPct, "lo_pct", cfg.LoWatermarkPct)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return produceLoop(ctx, log, r)
	})
	wg.Go(func() error {
		err := waitInterrupted(ctx)
		log.Infow("caught signal, stopping producer", "err", err)
		cancel()
		return err
	})

	if err := wg.Wait(); err != nil && !isInterrupted(err) {
		return err
	}
	return nil
}

func produceLoop(ctx context.Context, log *zap.SugaredLogger, r *ring.Ring) error {
	var ticker *time.Ticker
	if produceFlags.rateHz > 0 {
		// spec.md §9: "rescheduling cadence should be computed as
		// max(1, 1000/rate_hz) milliseconds".
		intervalMS := 1000 / produceFlags.rateHz
		if intervalMS < 1 {
			intervalMS = 1
		}
		ticker = time.NewTicker(time.Duration(intervalMS) * time.Millisecond)
		defer ticker.Stop()
	}

	var seq uint64
	var dropped uint64
	for produceFlags.count == 0 || seq < produceFlags.count {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return reportAndReturn(log, seq, dropped, ctx.Err())
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				return reportAndReturn(log, seq, dropped, ctx.Err())
			default:
			}
		}

		payload, err := synthesizePacket(seq, produceFlags.snaplen)
		if err != nil {
			return fmt.Errorf("failed to synthesize packet %d: %w", seq, err)
		}

		if !r.Push(payload, uint64(time.Now().UnixNano())) {
			dropped++
		}
		seq++

		if seq%10000 == 0 {
			log.Infow("progress", "emitted", seq, "dropped", dropped)
		}
	}
	return reportAndReturn(log, seq, dropped, nil)
}

func reportAndReturn(log *zap.SugaredLogger, seq, dropped uint64, err error) error {
	log.Infow("producer finished", "emitted", seq, "dropped", dropped)
	return err
}

// synthesizePacket builds a minimal Ethernet/IPv4/UDP frame whose payload
// carries seq so consumers can verify ordering, the way
// tests/migration/converter/lib's PacketBuilder assembles layered test
// traffic with gopacket.
func synthesizePacket(seq uint64, payloadLen int) ([]byte, error) {
	payload := make([]byte, payloadLen)
	binary.BigEndian.PutUint64(payload, seq)

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(40000 + seq%1000),
		DstPort: layers.UDPPort(9999),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
