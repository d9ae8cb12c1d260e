package cluster

// Noise marks points no density-reachable cluster claimed.
const Noise = -1

// DBSCAN groups points whose eps-neighborhood holds at least MinPts members
// and grows each cluster over every point reachable through that
// neighborhood. Unreached points keep the Noise label.
type DBSCAN struct {
	Eps    float64
	MinPts int
}

func NewDBSCAN(eps float64, minPts int) *DBSCAN {
	return &DBSCAN{Eps: eps, MinPts: minPts}
}

// Cluster returns one label per input vector, Noise for outliers.
func (db *DBSCAN) Cluster(data [][]float64) ([]int, error) {
	if db.Eps <= 0 || db.MinPts < 1 {
		return nil, ErrCluster
	}
	n := len(data)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != Noise {
			continue
		}
		count := 0
		for j := 0; j < n; j++ {
			if euclidean(data[i], data[j]) <= db.Eps {
				count++
			}
		}
		if count < db.MinPts {
			continue
		}
		db.expand(i, clusterID, data, labels)
		clusterID++
	}
	return labels, nil
}

// expand flood-fills from a core point, claiming every point within eps of
// anything already in the cluster.
func (db *DBSCAN) expand(seed, clusterID int, data [][]float64, labels []int) {
	stack := []int{seed}
	labels[seed] = clusterID
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for j := range data {
			if labels[j] == Noise && euclidean(data[j], data[idx]) <= db.Eps {
				labels[j] = clusterID
				stack = append(stack, j)
			}
		}
	}
}
