package buffer

import (
	"testing"
)

func BenchmarkBufferWrite(b *testing.B) {
	benchmarks := []struct {
		name     string
		capacity int
		policy   OverflowPolicy
	}{
		{"Circular_100_DropOldest", 100, DropOldest},
		{"Circular_100_DropNewest", 100, DropNewest},
		{"Circular_1000_DropOldest", 1000, DropOldest},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			buf, err := NewCircularBuffer[int](bm.capacity, WithOverflowPolicy[int](bm.policy))
			if err != nil {
				b.Fatal(err)
			}
			defer func() { _ = buf.Close() }()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					_ = buf.Write(i)
					i++
				}
			})
		})
	}
}

func BenchmarkBufferRead(b *testing.B) {
	buf, err := NewCircularBuffer[int](1000)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = buf.Close() }()

	for i := 0; i < 1000; i++ {
		_ = buf.Write(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := buf.Read(); !ok {
			// Refill when drained so reads stay hot
			b.StopTimer()
			for j := 0; j < 1000; j++ {
				_ = buf.Write(j)
			}
			b.StartTimer()
		}
	}
}

func BenchmarkBufferItems(b *testing.B) {
	buf, err := NewCircularBuffer[int](1000)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = buf.Close() }()

	for i := 0; i < 1000; i++ {
		_ = buf.Write(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.Items()
	}
}

func BenchmarkBufferMixed(b *testing.B) {
	buf, err := NewCircularBuffer[int](1000)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = buf.Close() }()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				_ = buf.Write(i)
			} else {
				_, _ = buf.Read()
			}
			i++
		}
	})
}
