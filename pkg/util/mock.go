package util

import "github.com/influxdata/influxdb-client-go/api/write"

// MockWriteAPI discards everything. It is the write API used when no InfluxDB
// host is configured.
type MockWriteAPI struct{}

func (m *MockWriteAPI) WriteRecord(line string) {}

func (m *MockWriteAPI) WritePoint(point *write.Point) {}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

func (m *MockWriteAPI) Errors() <-chan error { return nil }
