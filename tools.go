package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"book-video-pipeline/01_chapters"
	"book-video-pipeline/05_audio"
	"book-video-pipeline/logger"

	"github.com/spf13/cobra"
)

var markFlags struct {
	file string
	toc  string
}

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Insert chapter markers into input-txts/<name>.txt using a table of contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		name, err := p.ask("Enter which txt file to process from "+cfg.Paths.InputTexts+"/: ", markFlags.file)
		if err != nil {
			return err
		}
		name = baseNameOf(withTxtExt(name))
		defer recordRun("mark", name, start)

		input := filepath.Join(cfg.Paths.InputTexts, name+".txt")
		toc := markFlags.toc
		if toc == "" {
			toc = filepath.Join(cfg.Paths.InputTexts, name+".toc.txt")
		}
		out, err := chapters.MarkFile(input, toc, cfg.Paths.Texts, cfg.Paths.ChapteredFile)
		if err != nil {
			return err
		}
		logger.Info("Output saved", map[string]interface{}{"output": out})
		return nil
	},
}

var noiseFlags struct {
	color    string
	duration float64
}

var noiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Generate a white or brown noise WAV in the audio directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		color, err := audiobed.ParseColor(noiseFlags.color)
		if err != nil {
			return err
		}
		defer recordRun("noise", string(color)+" noise", start)

		if noiseFlags.duration > 0 {
			cfg.Noise.DurationSec = noiseFlags.duration
		}
		_, err = audiobed.NewNoiseGenerator(cfg).Run(cmd.Context(), color)
		return err
	},
}

var addAudioFlags struct {
	video string
	audio string
}

var addAudioCmd = &cobra.Command{
	Use:   "addaudio",
	Short: "Lay an audio bed (or every .wav in the audio directory) under a video",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		video := addAudioFlags.video
		if !strings.HasSuffix(strings.ToLower(video), ".mp4") {
			video += ".mp4"
		}
		defer recordRun("addaudio", video, start)

		videoPath := filepath.Join(cfg.Paths.Videos, video)
		merger := audiobed.NewMerger(cfg)

		if addAudioFlags.audio != "" {
			_, err := merger.Run(cmd.Context(), videoPath, filepath.Join(cfg.Paths.Audio, addAudioFlags.audio))
			return err
		}
		outputs, err := merger.MergeAll(cmd.Context(), videoPath)
		if err != nil {
			return err
		}
		if len(outputs) == 0 {
			return errors.New("no videos were created")
		}
		logger.Info("Created videos", map[string]interface{}{"count": len(outputs), "outputs": outputs})
		return nil
	},
}

func init() {
	markCmd.Flags().StringVar(&markFlags.file, "file", "", "file name under the input directory (prompted if empty)")
	markCmd.Flags().StringVar(&markFlags.toc, "toc", "", "table of contents file (default <input dir>/<name>.toc.txt)")

	noiseCmd.Flags().StringVar(&noiseFlags.color, "color", "brown", "noise color: white or brown")
	noiseCmd.Flags().Float64Var(&noiseFlags.duration, "duration", 0, "length in seconds (default from config)")

	addAudioCmd.Flags().StringVar(&addAudioFlags.video, "video", "test.mp4", "video file under the videos directory")
	addAudioCmd.Flags().StringVar(&addAudioFlags.audio, "audio", "", "audio file under the audio directory (default: every .wav)")

	rootCmd.AddCommand(markCmd, noiseCmd, addAudioCmd)
}

// prompter asks for values that were not given as flags.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask returns preset when set, otherwise reads one trimmed line.
func (p *prompter) ask(question, preset string) (string, error) {
	if preset = strings.TrimSpace(preset); preset != "" {
		return preset, nil
	}
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", fmt.Errorf("no value given for %q", strings.TrimSpace(question))
	}
	return answer, nil
}

func withTxtExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".txt") {
		return name
	}
	return name + ".txt"
}

func baseNameOf(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
