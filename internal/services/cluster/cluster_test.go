package cluster

import (
	"math/rand"
	"testing"
)

func twoBlobs() [][]float64 {
	// Two tight groups far apart on the first axis.
	return [][]float64{
		{0.0, 0.1}, {0.1, 0.0}, {0.05, 0.05}, {-0.1, 0.02},
		{10.0, 0.1}, {10.1, 0.0}, {9.95, 0.05}, {10.05, -0.1},
	}
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	km := NewKMeans(2, 50)
	km.Rand = rand.New(rand.NewSource(1))
	labels, err := km.Cluster(twoBlobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 8 {
		t.Fatalf("expected 8 labels, got %d", len(labels))
	}
	for i := 1; i < 4; i++ {
		if labels[i] != labels[0] {
			t.Fatalf("first blob split: %v", labels)
		}
	}
	for i := 5; i < 8; i++ {
		if labels[i] != labels[4] {
			t.Fatalf("second blob split: %v", labels)
		}
	}
	if labels[0] == labels[4] {
		t.Fatalf("blobs merged into one cluster: %v", labels)
	}
}

func TestKMeansDeterministicWithSeed(t *testing.T) {
	data := twoBlobs()
	run := func() []int {
		km := NewKMeans(2, 50)
		km.Rand = rand.New(rand.NewSource(42))
		labels, err := km.Cluster(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return labels
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded runs diverged at %d: %v vs %v", i, a, b)
		}
	}
}

func TestKMeansConfigErrors(t *testing.T) {
	data := twoBlobs()
	cases := []*KMeans{
		NewKMeans(0, 10),
		NewKMeans(2, 0),
		NewKMeans(9, 10), // k > n
	}
	for _, km := range cases {
		if _, err := km.Cluster(data); err != ErrCluster {
			t.Fatalf("expected ErrCluster for %+v, got %v", km, err)
		}
	}
	if _, err := NewKMeans(1, 10).Cluster(nil); err != ErrCluster {
		t.Fatalf("expected ErrCluster for empty data, got %v", err)
	}
	if _, err := NewKMeans(1, 10).Cluster([][]float64{{1, 2}, {1}}); err != ErrCluster {
		t.Fatalf("expected ErrCluster for ragged data, got %v", err)
	}
}

func TestDBSCANFindsClustersAndNoise(t *testing.T) {
	data := append(twoBlobs(), []float64{100, 100})
	labels, err := NewDBSCAN(0.5, 3).Cluster(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[8] != Noise {
		t.Fatalf("isolated point should be noise, got %d", labels[8])
	}
	if labels[0] != 0 {
		t.Fatalf("first cluster id should be 0, got %d", labels[0])
	}
	for i := 1; i < 4; i++ {
		if labels[i] != labels[0] {
			t.Fatalf("first blob split: %v", labels)
		}
	}
	for i := 5; i < 8; i++ {
		if labels[i] != labels[4] {
			t.Fatalf("second blob split: %v", labels)
		}
	}
	if labels[0] == labels[4] {
		t.Fatalf("blobs merged: %v", labels)
	}
}

func TestDBSCANAllNoiseWhenSparse(t *testing.T) {
	data := [][]float64{{0, 0}, {5, 5}, {10, 10}}
	labels, err := NewDBSCAN(0.5, 2).Cluster(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, l := range labels {
		if l != Noise {
			t.Fatalf("expected noise at %d, got %d", i, l)
		}
	}
}

func TestDBSCANConfigErrors(t *testing.T) {
	if _, err := NewDBSCAN(0, 3).Cluster(twoBlobs()); err != ErrCluster {
		t.Fatalf("expected ErrCluster for eps<=0, got %v", err)
	}
	if _, err := NewDBSCAN(0.5, 0).Cluster(twoBlobs()); err != ErrCluster {
		t.Fatalf("expected ErrCluster for minPts<1, got %v", err)
	}
}
