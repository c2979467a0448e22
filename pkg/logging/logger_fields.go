package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Component(name string) Field {
	return String("component", name)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}

// Analysis field helpers

func RunID(id string) Field {
	return String("run_id", id)
}

func PathID(id string) Field {
	return String("path_id", id)
}

func SourceNode(id uint64) Field {
	return Uint64("source", id)
}

func DestinationNode(id uint64) Field {
	return Uint64("destination", id)
}

func Stage(name string) Field {
	return String("stage", name)
}

func Status(s string) Field {
	return String("status", s)
}

func Threshold(km float64) Field {
	return Float64("threshold_km", km)
}

func Line(n int) Field {
	return Int("line", n)
}

func Sink(name string) Field {
	return String("sink", name)
}
