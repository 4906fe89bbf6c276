package core

import (
	"fmt"
	"mime"
	"mime/multipart"
	"time"
)

// A HomeworkRecord is the metadata of one uploaded file. Records are
// append-only: a new upload never replaces or removes an earlier record.
type HomeworkRecord struct {
	ID         int
	Partition  Partition
	UploadDate time.Time
	FilePath   string // storage name, relative to the upload root
	FileName   string // client-supplied original name
	Note       string // optional note in markdown
}

type HomeworkDB interface {
	AppendRecord(rec HomeworkRecord) (HomeworkRecord, error)
	// GetRecords returns all records of one partition, newest upload first.
	GetRecords(p Partition) ([]HomeworkRecord, error)
}

// AcceptUpload validates and stores an uploaded homework file, then records
// its metadata. The declared media type must be exactly application/pdf,
// checked before anything is written. The file write completes before the
// metadata append, so every listed record points to a retrievable file.
// There is no compensating delete if the append fails; the orphaned file
// sits under its content-hash name and is reused on re-upload.
func (c *CoreDB) AcceptUpload(p Partition, fh *multipart.FileHeader, uploadDate time.Time, note string) (HomeworkRecord, error) {

	if !p.Valid() {
		return HomeworkRecord{}, fmt.Errorf("partition %s: %w", p, ErrNotFound)
	}

	mediatype, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || mediatype != "application/pdf" {
		return HomeworkRecord{}, ErrUnsupportedType
	}

	file, err := fh.Open()
	if err != nil {
		return HomeworkRecord{}, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	storedName, err := c.Uploads.Save(fh.Filename, file)
	if err != nil {
		return HomeworkRecord{}, fmt.Errorf("storing upload %s: %w", fh.Filename, err)
	}

	rec, err := c.HomeworkDB.AppendRecord(HomeworkRecord{
		Partition:  p,
		UploadDate: uploadDate,
		FilePath:   storedName,
		FileName:   fh.Filename,
		Note:       note,
	})
	if err != nil {
		return HomeworkRecord{}, fmt.Errorf("recording upload %s in %s: %w", fh.Filename, p, err)
	}

	return rec, nil
}
