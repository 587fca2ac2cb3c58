package schema

import "github.com/INLOpen/nexusfetch/core"

// The built-in measurement sources. Encoded as plain data: one TableSchema
// per measurement, populated at static initialization.

var pingTable = &TableSchema{
	Name: "ping",
	Columns: []Column{
		{Name: "NodeId", Key: true},
		{Name: "Iccid", Key: true},
		{Name: "RTT", Agg: core.AggMean},
		{Name: "Error", Agg: core.AggSum},
		{Name: "Operator", Agg: core.AggMode},
		{Name: "Host", Agg: core.AggMode},
	},
	DefaultField: "RTT",
}

var gpsTable = &TableSchema{
	Name: "gps",
	Columns: []Column{
		{Name: "NodeId", Key: true},
		{Name: "Latitude", Agg: core.AggMean},
		{Name: "Longitude", Agg: core.AggMean},
		{Name: "Altitude", Agg: core.AggMean},
		{Name: "Speed", Agg: core.AggMean},
		{Name: "SatelliteCount", Agg: core.AggMean},
	},
	DefaultField: "Latitude",
}

var sensorTable = &TableSchema{
	Name: "sensor",
	Columns: []Column{
		{Name: "NodeId", Key: true},
		{Name: "CPU_User", Agg: core.AggMean},
		{Name: "CPU_Apps", Agg: core.AggMean},
		{Name: "Free", Agg: core.AggMean},
		{Name: "Swap", Agg: core.AggMean},
		{Name: "bat_usb0", Agg: core.AggMean},
		{Name: "bat_usb1", Agg: core.AggMean},
		{Name: "bat_usb2", Agg: core.AggMean},
		{Name: "BootCounter", Agg: core.AggMax},
		{Name: "Uptime", Agg: core.AggMax},
		{Name: "CumUptime", Agg: core.AggMax},
	},
	DefaultField: "Uptime",
}

var eventTable = &TableSchema{
	Name: "event",
	Columns: []Column{
		{Name: "NodeId", Key: true},
		{Name: "EventType", Agg: core.AggMode},
		{Name: "Message", Agg: core.AggMode},
	},
	DefaultField: "EventType",
}

var modemTable = &TableSchema{
	Name: "modem",
	Columns: []Column{
		{Name: "NodeId", Key: true},
		{Name: "Iccid", Key: true},
		{Name: "Interface", Agg: core.AggMode},
		{Name: "CID", Agg: core.AggMode},
		{Name: "DeviceMode", Agg: core.AggMode},
		{Name: "DeviceState", Agg: core.AggMode},
		{Name: "Frequency", Agg: core.AggMode},
		{Name: "MCC_MNC", Agg: core.AggMode},
		{Name: "Operator", Agg: core.AggMode},
		{Name: "IP_Address", Agg: core.AggMode},
		{Name: "ECIO", Agg: core.AggMean},
		{Name: "RSRQ", Agg: core.AggMean},
		{Name: "RSSI", Agg: core.AggMean},
	},
	DefaultField: "DeviceMode",
	Transform:    decodeModemEnums,
}

// Enum encodings as emitted by the node-side data exporter.
var (
	deviceModes = map[int64]string{
		1: "unknown", 2: "disconnected", 3: "no_service", 4: "2G", 5: "3G", 6: "LTE",
	}
	deviceStates = map[int64]string{
		0: "unknown", 1: "registered", 2: "unregistered", 3: "connected", 4: "disconnected",
	}
)

func decodeModemEnums(field string, value any) any {
	var table map[int64]string
	switch field {
	case "DeviceMode":
		table = deviceModes
	case "DeviceState":
		table = deviceStates
	default:
		return value
	}
	code, ok := asInt64(value)
	if !ok {
		return value
	}
	if label, ok := table[code]; ok {
		return label
	}
	return value
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// DefaultTables returns the built-in schemas in registration order.
func DefaultTables() []*TableSchema {
	return []*TableSchema{pingTable, gpsTable, sensorTable, eventTable, modemTable}
}

// DefaultRegistry builds a registry over the built-in schemas.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultTables()...)
}
