package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wansing/homework/core"
)

type HomeworkDB struct {
	*sql.DB
	get    *sql.Stmt
	insert *sql.Stmt

	driver string
}

func NewHomeworkDB(db *sql.DB, driver string) *HomeworkDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS homework (
			` + idColumn(driver) + `,
			grade INTEGER NOT NULL,
			subject varchar(32) NOT NULL,
			uploadDate BIGINT NOT NULL,
			filePath varchar(255) NOT NULL,
			fileName varchar(255) NOT NULL,
			note text NOT NULL
		);`)

	db.Exec(`CREATE INDEX IF NOT EXISTS homework_partition_idx ON homework (grade, subject);`)

	var homeworkDB = &HomeworkDB{}
	homeworkDB.DB = db
	homeworkDB.driver = driver
	// id as tiebreak keeps same-day uploads newest first
	homeworkDB.get = mustPrepare(db, driver, "SELECT id, uploadDate, filePath, fileName, note FROM homework WHERE grade = ? AND subject = ? ORDER BY uploadDate DESC, id DESC")
	homeworkDB.insert = mustPrepare(db, driver, "INSERT INTO homework (grade, subject, uploadDate, filePath, fileName, note) VALUES (?, ?, ?, ?, ?, ?)")
	return homeworkDB
}

// AppendRecord inserts one record. There is no uniqueness constraint on
// filenames: duplicates accumulate, nothing is ever overwritten or removed.
func (db *HomeworkDB) AppendRecord(rec core.HomeworkRecord) (core.HomeworkRecord, error) {

	if db.driver == "postgres" {
		err := db.QueryRow(
			rebind(db.driver, "INSERT INTO homework (grade, subject, uploadDate, filePath, fileName, note) VALUES (?, ?, ?, ?, ?, ?) RETURNING id"),
			rec.Partition.Grade, rec.Partition.Subject, rec.UploadDate.Unix(), rec.FilePath, rec.FileName, rec.Note,
		).Scan(&rec.ID)
		if err != nil {
			return core.HomeworkRecord{}, fmt.Errorf("appending to %s: %w", rec.Partition, err)
		}
		return rec, nil
	}

	res, err := db.insert.Exec(rec.Partition.Grade, rec.Partition.Subject, rec.UploadDate.Unix(), rec.FilePath, rec.FileName, rec.Note)
	if err != nil {
		return core.HomeworkRecord{}, fmt.Errorf("appending to %s: %w", rec.Partition, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.HomeworkRecord{}, err
	}
	rec.ID = int(id)
	return rec, nil
}

func (db *HomeworkDB) GetRecords(p core.Partition) ([]core.HomeworkRecord, error) {

	var all = []core.HomeworkRecord{}

	rows, err := db.get.Query(p.Grade, p.Subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec = core.HomeworkRecord{
			Partition: p,
		}
		var uploadDate int64
		if err := rows.Scan(&rec.ID, &uploadDate, &rec.FilePath, &rec.FileName, &rec.Note); err != nil {
			return nil, err
		}
		rec.UploadDate = time.Unix(uploadDate, 0)
		all = append(all, rec)
	}

	return all, rows.Err()
}
