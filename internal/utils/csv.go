package utils

import (
	"encoding/csv"
	"fmt"
	"sort"

	"github.com/facette/natsort"
)

type CSV [][]string

func (data CSV) Less(i, j int) bool {
	return natsort.Compare(data[i][0], data[j][0])
}

func (data CSV) Len() int {
	return len(data)
}
func (data CSV) Swap(i, j int) {
	data[i], data[j] = data[j], data[i]
}

func WriteAsCSV(data CSV, makeDir bool, path, subpath, filename string, columns []string) error {
	file, err := OpenFile(makeDir, path, subpath, GetFilename(filename))
	if err != nil {
		return fmt.Errorf("unable to create output file for %s: %w", filename, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.WriteAll([][]string{columns})
	sort.Sort(data)
	w.WriteAll(data)
	w.Flush()
	return w.Error()
}
