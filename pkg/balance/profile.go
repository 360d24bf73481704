package balance

import (
	"thermalhorizon/pkg/thermal"
)

// columnScan is the reduction of a segmented frame that the estimator needs:
// the Earth count of every column plus an orientation vote per column.
// A column votes bottom when its last row is Earth and its first row is sky,
// and top in the opposite case.
type columnScan struct {
	counts []int
	votes  edgeVotes
}

type edgeVotes struct {
	top    int
	bottom int
}

func (v edgeVotes) add(o edgeVotes) edgeVotes {
	return edgeVotes{top: v.top + o.top, bottom: v.bottom + o.bottom}
}

// Profile reduces a frame to one Earth-sample count per column.
// The frame is validated before any sample is read.
func Profile(samples []int8, width, height int, threshold int8) ([]int, error) {
	if err := thermal.ValidateShape(len(samples), width, height); err != nil {
		return nil, err
	}
	return scanSequential(samples, width, height, threshold).counts, nil
}

// scanSequential walks the buffer in memory order.
func scanSequential(samples []int8, width, height int, threshold int8) columnScan {
	scan := columnScan{counts: make([]int, width)}
	scan.votes = scanColumns(samples, width, height, threshold, 0, width, scan.counts)
	return scan
}

// scanColumns counts Earth samples for columns [lo, hi) into counts and
// returns the edge votes of those columns.
func scanColumns(samples []int8, width, height int, threshold int8, lo, hi int, counts []int) edgeVotes {
	for y := 0; y < height; y++ {
		row := samples[y*width : (y+1)*width]
		for x := lo; x < hi; x++ {
			if row[x] > threshold {
				counts[x]++
			}
		}
	}

	var votes edgeVotes
	first := samples[:width]
	last := samples[(height-1)*width:]
	for x := lo; x < hi; x++ {
		top, bottom := first[x] > threshold, last[x] > threshold
		switch {
		case bottom && !top:
			votes.bottom++
		case top && !bottom:
			votes.top++
		}
	}
	return votes
}

// scanParallel splits the column range across workers. Each worker owns a
// disjoint slice of counts, so only the votes travel over the channel.
func scanParallel(samples []int8, width, height int, threshold int8, workers int) columnScan {
	if workers > width {
		workers = width
	}
	counts := make([]int, width)

	resultChan := make(chan edgeVotes, workers)
	chunk := (width + workers - 1) / workers
	started := 0
	for lo := 0; lo < width; lo += chunk {
		hi := lo + chunk
		if hi > width {
			hi = width
		}
		started++
		go func(lo, hi int) {
			resultChan <- scanColumns(samples, width, height, threshold, lo, hi, counts)
		}(lo, hi)
	}

	scan := columnScan{counts: counts}
	for i := 0; i < started; i++ {
		scan.votes = scan.votes.add(<-resultChan)
	}
	return scan
}
