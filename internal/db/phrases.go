package db

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"photoclash/internal/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PhraseRecord struct {
	Language string
	Text     string
	Mature   bool
}

// LoadPhraseFile reads phrases from a CSV and inserts the ones not already stored.
func LoadPhraseFile(ctx context.Context, conn *gorm.DB, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	records, err := ReadPhrases(file)
	if err != nil {
		return 0, err
	}
	return InsertPhrases(ctx, conn, records)
}

func InsertPhrases(ctx context.Context, conn *gorm.DB, records []PhraseRecord) (int, error) {
	if conn == nil || len(records) == 0 {
		return 0, nil
	}
	entries := make([]Phrase, 0, len(records))
	for _, record := range records {
		entries = append(entries, Phrase{
			Language: record.Language,
			Text:     record.Text,
			Mature:   record.Mature,
		})
	}
	result := conn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entries)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// LoadPhrasePools adds every stored phrase to the generator's pools.
func LoadPhrasePools(ctx context.Context, conn *gorm.DB, phrases *game.PhraseGenerator) (int, error) {
	var stored []Phrase
	if err := conn.WithContext(ctx).Order("id ASC").Find(&stored).Error; err != nil {
		return 0, err
	}
	type poolKey struct {
		language string
		mature   bool
	}
	pools := make(map[poolKey][]string)
	for _, phrase := range stored {
		key := poolKey{language: phrase.Language, mature: phrase.Mature}
		pools[key] = append(pools[key], phrase.Text)
	}
	added := 0
	for key, texts := range pools {
		added += phrases.AddPhrases(key.language, texts, key.mature)
	}
	return added, nil
}

// ReadPhrases parses "language,text[,mature]" rows. The first row is a header.
// Rows without a language or text are skipped.
func ReadPhrases(r io.Reader) ([]PhraseRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []PhraseRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		language := strings.ToLower(strings.TrimSpace(row[0]))
		text := strings.TrimSpace(row[1])
		if language == "" || text == "" {
			continue
		}
		mature := false
		if len(row) >= 3 {
			mature, _ = strconv.ParseBool(strings.TrimSpace(row[2]))
		}
		records = append(records, PhraseRecord{Language: language, Text: text, Mature: mature})
	}
	return records, nil
}
