// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/osinfo"
	"github.com/sirupsen/logrus"
	autoexport "go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	ServiceName = "rawimg2liveiso"

	otlpEndpointEnvVar = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Telemetry owns the tracer provider installed by Init.
type Telemetry struct {
	log      *logrus.Entry
	provider *sdktrace.TracerProvider
}

// Init installs a global tracer provider exporting over OTLP. Telemetry stays
// disabled when disableTelemetry is set or when no OTLP endpoint is configured.
func Init(log *logrus.Entry, disableTelemetry bool, toolVersion string) (*Telemetry, error) {
	log = log.WithField("component", "telemetry")
	t := &Telemetry{log: log}

	if disableTelemetry {
		log.Info("Disabled telemetry collection")
		return t, nil
	} else if os.Getenv(otlpEndpointEnvVar) == "" {
		log.Debug("No OTLP endpoint set, telemetry will not be collected")
		return t, nil
	}

	exporter, err := autoexport.NewSpanExporter(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter:\n%w", err)
	}

	res, err := newResource(toolVersion)
	if err != nil {
		return nil, err
	}

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(t.provider)
	return t, nil
}

// newResource describes this tool and its host. The attributes are schemaless
// so that merging with the SDK default resource cannot hit a schema URL
// conflict.
func newResource(toolVersion string) (*resource.Resource, error) {
	distro, version := osinfo.GetDistroAndVersion()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(toolVersion),
			attribute.String("host.architecture", runtime.GOARCH),
			attribute.String("host.os", distro),
			attribute.String("host.os.version", version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource:\n%w", err)
	}

	return res, nil
}

// Enabled reports whether spans are being exported.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.provider != nil
}

// ForceFlush attempts to flush any pending spans to the exporter.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}

	return t.provider.ForceFlush(ctx)
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}

	if err := t.ForceFlush(ctx); err != nil {
		t.log.Warnf("Failed to flush telemetry spans: %v", err)
	}

	return t.provider.Shutdown(ctx)
}
