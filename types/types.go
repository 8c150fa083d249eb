package types

// Chapter marks where a chapter begins in the flat word stream
type Chapter struct {
	ID         string `json:"id"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
	WordOffset int    `json:"word_offset"`
}

// ChapterRange is the half-open interval of chunk indices owned by a chapter
type ChapterRange struct {
	Chapter Chapter `json:"chapter"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
}

// Len returns the number of chunks in the range
func (r ChapterRange) Len() int {
	return r.End - r.Start
}

// Book is everything extracted from one chaptered text file
type Book struct {
	Words    []string  `json:"-"`
	Chapters []Chapter `json:"chapters"`
}

// ChapterResult records what happened to one chapter video
type ChapterResult struct {
	ChapterID   string  `json:"chapter_id"`
	Title       string  `json:"title"`
	StartChunk  int     `json:"start_chunk"`
	EndChunk    int     `json:"end_chunk"`
	DurationSec float64 `json:"duration_sec"`
	OutputFile  string  `json:"output_file,omitempty"`
	SRTFile     string  `json:"srt_file,omitempty"`
	YouTubeID   string  `json:"youtube_id,omitempty"`
	YouTubeURL  string  `json:"youtube_url,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// RunState tracks the full state of one captions run
type RunState struct {
	RunID          string          `json:"run_id"`
	StartedAt      string          `json:"started_at"`
	CompletedAt    string          `json:"completed_at"`
	InputFile      string          `json:"input_file"`
	BookTitle      string          `json:"book_title"`
	Author         string          `json:"author"`
	TotalWords     int             `json:"total_words"`
	TotalChunks    int             `json:"total_chunks"`
	Chapters       []ChapterResult `json:"chapters"`
	DroppedChapter []string        `json:"dropped_chapters,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Succeeded counts chapters with an output file and no error
func (s *RunState) Succeeded() int {
	n := 0
	for _, c := range s.Chapters {
		if c.Error == "" && c.OutputFile != "" {
			n++
		}
	}
	return n
}
