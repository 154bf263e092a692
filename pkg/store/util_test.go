package store

import (
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{"even split", 6, 3, [][2]int{{0, 3}, {3, 6}}},
		{"uneven tail", 7, 3, [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{"single window", 2, 10, [][2]int{{0, 2}}},
		{"zero total", 0, 3, nil},
		{"zero chunk size covers all", 4, 0, [][2]int{{0, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tt.total, tt.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("ChunkRange() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ChunkRange() windows = %v, want %v", got, tt.want)
			}
		})
	}
}
