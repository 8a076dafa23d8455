package logger

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	errorsEngine  int64
	errorsWriter  int64
	warnsEngine   int64
	warnsWriter   int64
	tradesRead    int64
	structures    int64
	commentaries  int64
	filesUploaded int64
)

func recordWarn(component string) {
	if strings.Contains(component, "writer") {
		atomic.AddInt64(&warnsWriter, 1)
	} else {
		atomic.AddInt64(&warnsEngine, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "writer") {
		atomic.AddInt64(&errorsWriter, 1)
	} else {
		atomic.AddInt64(&errorsEngine, 1)
	}
}

// IncrementTradesRead records trades ingested from the input file.
func IncrementTradesRead(n int) {
	atomic.AddInt64(&tradesRead, int64(n))
}

// IncrementStructuresDetected records structures emitted by a run.
func IncrementStructuresDetected(n int) {
	atomic.AddInt64(&structures, int64(n))
}

// IncrementCommentariesWritten records commentary files written.
func IncrementCommentariesWritten(n int) {
	atomic.AddInt64(&commentaries, int64(n))
}

// IncrementFilesUploaded records artifacts uploaded to remote storage.
func IncrementFilesUploaded(n int) {
	atomic.AddInt64(&filesUploaded, int64(n))
}

// StartReport begins periodic logging of system and pipeline statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_engine":        atomic.LoadInt64(&errorsEngine),
		"errors_writer":        atomic.LoadInt64(&errorsWriter),
		"warns_engine":         atomic.LoadInt64(&warnsEngine),
		"warns_writer":         atomic.LoadInt64(&warnsWriter),
		"trades_read":          atomic.LoadInt64(&tradesRead),
		"structures_detected":  atomic.LoadInt64(&structures),
		"commentaries_written": atomic.LoadInt64(&commentaries),
		"files_uploaded":       atomic.LoadInt64(&filesUploaded),
		"goroutines":           runtime.NumGoroutine(),
		"cpu_percent":          cpuPct,
		"memory_mb":            int64(memStats.Used) / 1024 / 1024,
		"disk_mb":              int64(diskStats.Used) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("ErrorsEngine"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsEngine)))},
		{MetricName: aws.String("ErrorsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsWriter)))},
		{MetricName: aws.String("WarnsEngine"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&warnsEngine)))},
		{MetricName: aws.String("WarnsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&warnsWriter)))},
		{MetricName: aws.String("TradesRead"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&tradesRead)))},
		{MetricName: aws.String("StructuresDetected"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&structures)))},
		{MetricName: aws.String("CommentariesWritten"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&commentaries)))},
		{MetricName: aws.String("FilesUploaded"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&filesUploaded)))},
	}

	publishMetrics(ctx, data)
}
