package restructure

import "github.com/dgallion1/pdfsplice/internal/sink"

// ContentTypePDF is attached to every output document.
const ContentTypePDF = "application/pdf"

// SplitMethod names the strategy that produced a SplitResult.
type SplitMethod string

const (
	ByPage     SplitMethod = "BY_PAGE"
	ByRange    SplitMethod = "BY_RANGE"
	ByBookmark SplitMethod = "BY_BOOKMARK"
	BySize     SplitMethod = "BY_SIZE"
)

// Result is implemented by *MergeResult and *SplitResult.
type Result interface {
	result()
}

// OutputDocument is a stored output plus the number of pages it holds.
type OutputDocument struct {
	sink.Handle
	PageCount int `json:"pageCount"`
}

type MergeResult struct {
	MergedDocument      OutputDocument `json:"mergedDocument"`
	TotalPages          int            `json:"totalPages"`
	SourceDocumentCount int            `json:"sourceDocumentCount"`
	FileSizeBytes       int64          `json:"fileSizeBytes"`
}

type SplitResult struct {
	SplitDocuments []OutputDocument `json:"splitDocuments"`
	TotalFiles     int              `json:"totalFiles"`
	OriginalPages  int              `json:"originalPages"`
	SplitMethod    SplitMethod      `json:"splitMethod"`
}

func (*MergeResult) result() {}
func (*SplitResult) result() {}
