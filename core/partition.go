package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinGrade = 1
	MaxGrade = 4
)

var Subjects = []string{"mathematics", "english", "science", "social_studies"}

// A Partition addresses one homework collection: one grade level, one subject.
// The original site had one pair of routes per combination; here the
// combination is a value which is validated at the boundary instead.
type Partition struct {
	Grade   int
	Subject string
}

// Partitions is the fixed table of all valid grade/subject combinations.
var Partitions = allPartitions()

func allPartitions() []Partition {
	var all = make([]Partition, 0, (MaxGrade-MinGrade+1)*len(Subjects))
	for grade := MinGrade; grade <= MaxGrade; grade++ {
		for _, subject := range Subjects {
			all = append(all, Partition{grade, subject})
		}
	}
	return all
}

// ParsePartition validates a grade and subject taken from an URL.
// Unknown combinations yield ErrNotFound.
func ParsePartition(gradeStr, subject string) (Partition, error) {
	grade, err := strconv.Atoi(gradeStr)
	if err != nil {
		return Partition{}, fmt.Errorf("grade %q: %w", gradeStr, ErrNotFound)
	}
	var p = Partition{
		Grade:   grade,
		Subject: strings.ToLower(strings.TrimSpace(subject)),
	}
	if !p.Valid() {
		return Partition{}, fmt.Errorf("partition %s: %w", p, ErrNotFound)
	}
	return p, nil
}

func (p Partition) Valid() bool {
	if p.Grade < MinGrade || p.Grade > MaxGrade {
		return false
	}
	for _, subject := range Subjects {
		if p.Subject == subject {
			return true
		}
	}
	return false
}

func (p Partition) String() string {
	return fmt.Sprintf("grade-%d/%s", p.Grade, p.Subject)
}

// Title is for templates, like "Grade 2 Social Studies".
func (p Partition) Title() string {
	return fmt.Sprintf("Grade %d %s", p.Grade, strings.Title(strings.ReplaceAll(p.Subject, "_", " ")))
}
