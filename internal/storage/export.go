package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Samples int         `json:"samples"`
	Rows    []Row       `json:"rows"`
}

func ExportJSON(w io.Writer, meta RunMetadata, rows []Row) error {
	data := ExportData{
		Run:     meta,
		Samples: len(rows),
		Rows:    rows,
	}
	if data.Rows == nil {
		data.Rows = []Row{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, meta, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
