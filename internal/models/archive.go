package models

// ArchiveMonth is a (year, month) pair that has at least one published post.
type ArchiveMonth struct {
	Year  int
	Month int
}
