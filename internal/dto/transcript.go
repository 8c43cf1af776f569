package dto

// TranscriptQuery holds the query parameters of the transcript endpoint.
type TranscriptQuery struct {
	Semester string `form:"semester"`
	Format   string `form:"format"`
}
