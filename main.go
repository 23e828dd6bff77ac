package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
	slog "github.com/vearne/simplelog"
	"github.com/wiretap-go/wiretap/capture"
	"github.com/wiretap-go/wiretap/config"
	"github.com/wiretap-go/wiretap/plugin"
	"github.com/wiretap-go/wiretap/protocol"
	"github.com/wiretap-go/wiretap/util"
)

const banner string = `
         _              __
 _    __(_)______ ___  / /____ _____
| |/|/ / / __/ -_) _ \/ __/ _ '/ _ \
|__,__/_/_/  \__/\__/_/\__/\_,_/ .__/
                              /_/
`

const version = "0.1.0"

var settings config.AppSettings
var printVersion bool

func init() {
	flag.BoolVar(&printVersion, "version", false, "print version")

	flag.DurationVar(&settings.ExitAfter, "exit-after", 0, "stop the capture after the specified duration")

	// #################### capture ######################
	flag.StringVar(&settings.Iface, "iface", "",
		`Device to capture on. Empty picks the first interface that is up,
                not loopback and has an address:
                wiretap --iface=eth0 --exit-after=15s`)

	flag.StringVar(&settings.Engine, "engine", "libpcap",
		"capture engine: libpcap or af_packet")

	flag.StringVar(&settings.BPFFilter, "bpf-filter", "",
		`tcpdump-style filter applied to the handle:
                wiretap --bpf-filter="tcp port 139"`)

	flag.Var(&settings.BufferSize, "buffer-size",
		"capture buffer size, accepts data units: --buffer-size=2mb")

	flag.BoolVar(&settings.Promiscuous, "promisc", false, "put the device in promiscuous mode")

	flag.DurationVar(&settings.ReadTimeout, "read-timeout", 0, "handle read timeout")

	// #################### analysis ######################
	flag.Var(&config.MultiStringOption{Params: &settings.Hosts}, "host",
		`restrict the pair report to traffic from/to this IPv4 address,
                can be passed several times:
                wiretap --host=192.168.4.23 --exec="nmap -sV -p139 192.168.4.23"`)

	flag.StringVar(&settings.Exec, "exec", "",
		`run a command (typically a scanner) during the capture and stop
                when it exits`)

	// #################### output ######################
	flag.BoolVar(&settings.OutputStdout, "output-stdout", false,
		"write one JSON report per matched pair to stdout")

	flag.StringVar(&settings.OutputKafkaHost, "output-kafka-host", "",
		`publish pair reports to kafka:
                wiretap --output-kafka-host="192.168.0.1:9092" --output-kafka-topic="wiretap-pairs"`)

	flag.StringVar(&settings.OutputKafkaTopic, "output-kafka-topic", "wiretap-pairs", "")
}

func main() {
	fmt.Print(banner)

	adjustLogLevel()

	flag.Parse()
	if printVersion {
		fmt.Println("service: wiretap")
		fmt.Println("Version", version)
		return
	}

	printSettings(&settings)

	for _, host := range settings.Hosts {
		if util.IsIPv6(host) {
			slog.Fatal("--host %q is IPv6, only IPv4 traffic is captured", host)
		}
		if !util.IsIPv4(host) {
			slog.Fatal("--host %q is not an IPv4 address", host)
		}
	}

	opts := capture.DefaultOptions()
	if err := opts.Engine.Set(settings.Engine); err != nil {
		slog.Fatal("invalid engine: %v", err)
	}
	opts.BPFFilter = settings.BPFFilter
	opts.BufferSize = settings.BufferSize
	opts.Promiscuous = settings.Promiscuous
	if settings.ReadTimeout > 0 {
		opts.BufferTimeout = settings.ReadTimeout
	}

	sess, err := bindSession(opts)
	if err != nil {
		slog.Fatal("bind: %v", err)
	}

	active, err := sess.Start()
	if err != nil {
		slog.Fatal("start capture: %v", err)
	}

	wait(active)

	done, err := active.Stop()
	if err != nil {
		slog.Fatal("stop capture: %v", err)
	}
	if err := done.Err(); err != nil {
		slog.Error("capture ended early: %v", err)
	}

	report(done)
	reportNIC(sess.Interface().Name)
}

func bindSession(opts capture.Options) (*capture.Session, error) {
	if settings.Iface == "" {
		return capture.BindDefault(opts)
	}
	return capture.Bind(settings.Iface, opts)
}

// wait blocks until the exec command exits, the --exit-after timer fires or a
// termination signal arrives.
func wait(active *capture.ActiveSession) {
	closeCh := make(chan int)

	if settings.Exec != "" {
		go func() {
			cmd := exec.Command("/bin/sh", "-c", settings.Exec)
			cmd.Stdout = os.Stderr
			cmd.Stderr = os.Stderr
			if err := cmd.Run(); err != nil {
				slog.Error("exec %q: %v", settings.Exec, err)
			}
			close(closeCh)
		}()
	} else if settings.ExitAfter > 0 {
		slog.Info("capturing for a duration of %s", settings.ExitAfter)
		time.AfterFunc(settings.ExitAfter, func() {
			close(closeCh)
		})
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	select {
	case <-c:
		slog.Info("interrupted, stopping capture")
	case <-closeCh:
	}
}

func report(done *capture.CompletedSession) {
	raw := done.ResultsRaw()
	ipv4 := done.ResultsAsIPv4()
	slog.Info("captured %d frames, %d IPv4 packets", len(raw), len(ipv4))

	writers := buildWriters()
	defer func() {
		for _, w := range writers {
			if err := w.Close(); err != nil {
				slog.Error("close output: %v", err)
			}
		}
	}()

	hosts := settings.Hosts
	if len(hosts) == 0 {
		hosts = []string{""}
	}
	for _, host := range hosts {
		packets := ipv4
		if host != "" {
			packets = packets.FilterHost(net.ParseIP(host))
			slog.Info("%d IPv4 packets from/to %s", len(packets), host)
		}
		segments := packets.TCP().FilterPayload()
		matched, unmatched := protocol.FindChallengeResponsePairs(segments)
		slog.Info("host=%q segments=%d matched pairs=%d unmatched=%d",
			host, len(segments), len(matched), len(unmatched))

		for _, pair := range matched {
			rep := plugin.NewPairReport(done.ID(), host, pair)
			for _, w := range writers {
				if err := w.Write(rep); err != nil {
					slog.Error("write report: %v", err)
				}
			}
		}
		for _, s := range unmatched {
			slog.Debug("unmatched %v", s)
		}
	}
}

func buildWriters() []plugin.PairWriter {
	var writers []plugin.PairWriter
	if settings.OutputKafkaHost != "" {
		kafka, err := plugin.NewKafkaOutput(plugin.KafkaOutputConfig{
			Host:  settings.OutputKafkaHost,
			Topic: settings.OutputKafkaTopic,
		})
		if err != nil {
			slog.Fatal("kafka output: %v", err)
		}
		writers = append(writers, kafka)
	}
	if settings.OutputStdout || len(writers) == 0 {
		writers = append(writers, plugin.NewStdOutput())
	}
	return writers
}

// reportNIC logs the kernel view of the device after the capture, which shows
// drops the snapshot cannot.
func reportNIC(name string) {
	counters, err := psnet.IOCounters(true)
	if err != nil {
		slog.Debug("nic counters unavailable: %v", err)
		return
	}
	for _, c := range counters {
		if c.Name == name {
			slog.Info("nic %s: recv=%d sent=%d dropin=%d errin=%d",
				c.Name, c.PacketsRecv, c.PacketsSent, c.Dropin, c.Errin)
			return
		}
	}
}

func printSettings(settings *config.AppSettings) {
	slog.Info("iface, %v", settings.Iface)
	slog.Info("engine, %v", settings.Engine)
	slog.Info("bpf-filter, %v", settings.BPFFilter)
	slog.Info("buffer-size, %v", int64(settings.BufferSize))
	slog.Info("promisc, %v", settings.Promiscuous)
	slog.Info("exit-after, %v", settings.ExitAfter)
	slog.Info("exec, %v", settings.Exec)
	slog.Info("host, %v", settings.Hosts)
	slog.Info("output-stdout, %v", settings.OutputStdout)
	slog.Info("output-kafka-host, %v", settings.OutputKafkaHost)
	slog.Info("output-kafka-topic, %v", settings.OutputKafkaTopic)
}

func adjustLogLevel() {
	logLevel := os.Getenv("SIMPLE_LOG_LEVEL")
	if len(logLevel) > 0 {
		return
	}
	slog.SetLevel(slog.InfoLevel)
}
