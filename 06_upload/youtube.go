package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"book-video-pipeline/config"
	"book-video-pipeline/logger"
	"book-video-pipeline/types"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrMissingCredentials is returned when the YouTube OAuth env vars are not set.
var ErrMissingCredentials = errors.New("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")

// YouTube rejects titles over 100 characters
const maxTitleLen = 100

// Metadata is what gets sent with one chapter video
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Visibility  string   `json:"visibility"`
}

// BuildMetadata derives upload metadata for a chapter video.
func BuildMetadata(cfg config.UploadConfig, bookTitle, author, chapterTitle string) Metadata {
	title := bookTitle
	if chapterTitle != "" {
		title = bookTitle + " — " + chapterTitle
	}
	desc := bookTitle
	if author != "" {
		desc += " by " + author
	}
	tags := []string{"audiobook", "book", "reading"}
	for _, t := range []string{bookTitle, author} {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return Metadata{
		Title:       truncate(title, maxTitleLen),
		Description: desc,
		Tags:        tags,
		CategoryID:  cfg.CategoryID,
		Visibility:  cfg.Visibility,
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// Publisher uploads chapter videos via the YouTube Data API v3
type Publisher struct {
	cfg *config.Config
}

// New creates a new Publisher
func New(cfg *config.Config) *Publisher {
	return &Publisher{cfg: cfg}
}

// PublishAll uploads every successfully emitted chapter and records the
// video id and URL on its result. A failed upload is logged and skipped.
func (p *Publisher) PublishAll(ctx context.Context, bookTitle, author string, results []types.ChapterResult) error {
	svc, err := p.service(ctx)
	if err != nil {
		return err
	}
	for i := range results {
		r := &results[i]
		if r.Error != "" || r.OutputFile == "" {
			continue
		}
		meta := BuildMetadata(p.cfg.Upload, bookTitle, author, r.Title)
		id, url, err := p.upload(svc, r.OutputFile, meta)
		if err != nil {
			logger.Error(err, "Upload failed, continuing", map[string]interface{}{
				"stage":   "upload",
				"chapter": r.ChapterID,
			})
			continue
		}
		r.YouTubeID, r.YouTubeURL = id, url
		if err := LogUpload(id, url, r.OutputFile, filepath.Dir(r.OutputFile), meta); err != nil {
			logger.Warn("Could not save upload log", map[string]interface{}{"stage": "upload", "error": err.Error()})
		}
	}
	return nil
}

func (p *Publisher) service(ctx context.Context) (*youtube.Service, error) {
	logger.Info("Authenticating with YouTube API", map[string]interface{}{"stage": "upload"})
	ts, err := tokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube auth: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return svc, nil
}

func (p *Publisher) upload(svc *youtube.Service, videoFile string, meta Metadata) (string, string, error) {
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      p.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: p.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Visibility,
			SelfDeclaredMadeForKids: p.cfg.Upload.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	fields := map[string]interface{}{"stage": "upload", "title": meta.Title}
	if fi, err := f.Stat(); err == nil {
		fields["size_mb"] = fmt.Sprintf("%.1f", float64(fi.Size())/1024/1024)
	}
	logger.Info("Uploading", fields)

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.NotifySubscribers(p.cfg.Upload.NotifySubscribers)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("youtube upload: %w", err)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	fields["video_id"] = uploaded.Id
	fields["url"] = url
	logger.Info("Uploaded successfully", fields)
	return uploaded.Id, url, nil
}

// Credentials reads the OAuth client and refresh token from the environment.
func Credentials() (clientID, clientSecret, refreshToken string, err error) {
	clientID = os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret = os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken = os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return "", "", "", ErrMissingCredentials
	}
	return clientID, clientSecret, refreshToken, nil
}

// tokenSource builds a refreshing token source from env credentials
func tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	clientID, clientSecret, refreshToken, err := Credentials()
	if err != nil {
		return nil, err
	}
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return conf.TokenSource(ctx, token), nil
}

// LogUpload saves the upload result next to the chapter video
func LogUpload(videoID, videoURL, videoFile, outputDir string, meta Metadata) error {
	entry := map[string]interface{}{
		"video_id":    videoID,
		"video_url":   videoURL,
		"title":       meta.Title,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		"video_file":  videoFile,
	}
	name := strings.TrimSuffix(filepath.Base(videoFile), filepath.Ext(videoFile))
	logFile := filepath.Join(outputDir, fmt.Sprintf("upload_%s.json", name))
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(logFile, data, 0o644)
}
