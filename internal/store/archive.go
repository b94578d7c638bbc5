package store

import (
	"context"
	"database/sql"
)

// PendingImageURLs returns distinct image URLs with no ledger entry yet, in
// stable URL order.
func (s *Store) PendingImageURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT i.image_url
		 FROM images i
		 LEFT JOIN image_downloads d ON i.image_url = d.url
		 WHERE d.url IS NULL
		 ORDER BY i.image_url`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// AllImageURLs returns every distinct image URL, for forced re-downloads.
func (s *Store) AllImageURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT image_url FROM images ORDER BY image_url`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// RecordDownload writes the ledger entry mapping a URL to its archived
// filename. With force the entry is replaced; otherwise a duplicate URL is an
// error, which the archiver's queue query makes unreachable in practice.
func (s *Store) RecordDownload(ctx context.Context, url, filename string, force bool) error {
	stmt := `INSERT INTO image_downloads (url, filename) VALUES (?, ?)`
	if force {
		stmt = `INSERT OR REPLACE INTO image_downloads (url, filename) VALUES (?, ?)`
	}
	_, err := s.db.ExecContext(ctx, stmt, url, filename)
	return err
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
