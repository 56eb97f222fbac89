// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package telemetry

import (
	"context"
	"runtime"
	"testing"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func TestInitDisabled(t *testing.T) {
	log, hook := logger.NewMemoryLogger()

	telemetry, err := Init(logrus.NewEntry(log), true, "1.0.0")
	require.NoError(t, err)
	assert.False(t, telemetry.Enabled())
	assert.True(t, hook.Contains(logrus.InfoLevel, "Disabled telemetry collection"))

	assert.NoError(t, telemetry.Shutdown(context.Background()))
}

func TestInitNoEndpoint(t *testing.T) {
	t.Setenv(otlpEndpointEnvVar, "")
	log, _ := logger.NewMemoryLogger()

	telemetry, err := Init(logrus.NewEntry(log), false, "1.0.0")
	require.NoError(t, err)
	assert.False(t, telemetry.Enabled())
	assert.NoError(t, telemetry.ForceFlush(context.Background()))
}

func TestNewResourceKeepsToolAttributes(t *testing.T) {
	res, err := newResource("1.2.3")
	require.NoError(t, err)

	attributes := res.Set()

	serviceName, ok := attributes.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, ServiceName, serviceName.AsString())

	serviceVersion, ok := attributes.Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", serviceVersion.AsString())

	architecture, ok := attributes.Value(attribute.Key("host.architecture"))
	require.True(t, ok)
	assert.Equal(t, runtime.GOARCH, architecture.AsString())

	// The SDK defaults are merged in as well.
	_, ok = attributes.Value(attribute.Key("telemetry.sdk.language"))
	assert.True(t, ok)
}
