package main

import (
	"context"
	"os"
	"webwork-assist/internal/components/telemetry"
	"webwork-assist/internal/serviceutil"
)

// initTelemetry logs to stderr so stdout stays free for the stdio transport.
func initTelemetry(ctx context.Context, level string) (telemetry.API, telemetry.Telemetry) {
	telemetry.InitSlog(os.Stderr, telemetry.ParseLevel(level))

	t, err := telemetry.SetupFromEnv(ctx, "webwork-mcp")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}

	tel := telemetry.NewOtelAPI(telemetry.SlogAPI{})
	telemetry.InstrumentPerfStats(ctx, tel)

	return tel, t
}
