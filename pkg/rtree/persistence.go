package rtree

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/geojson-rdf/pkg/models"
)

// IndexData represents the serializable form of the feature index
type IndexData struct {
	Features []*models.Feature `json:"features"`
	Count    int64             `json:"count"`
}

// SaveToFile saves the index to a binary file
func (fi *FeatureIndex) SaveToFile(filename string) error {
	data := IndexData{
		Features: fi.Features(),
		Count:    fi.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return nil
}

// LoadFromFile loads the index from a binary file. The geometries are read
// again from their GeoJSON text.
func (fi *FeatureIndex) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	// Clear existing index and rebuild
	fi.Clear()
	if err := fi.IndexFeatures(data.Features); err != nil {
		return fmt.Errorf("failed to index features: %w", err)
	}

	return nil
}
