package writer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sly/command"
	"sly/command/audio"
	"sly/config"
	"sly/ffprobe"
	"sly/models"
	"sly/sequence"
)

type fakeProber struct {
	result *ffprobe.ProbeResult
	err    error
}

func (f fakeProber) Probe(ctx context.Context, path string) (*ffprobe.ProbeResult, error) {
	return f.result, f.err
}

func audioProbe(duration string) fakeProber {
	return fakeProber{result: &ffprobe.ProbeResult{
		Streams: []ffprobe.Stream{{CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: duration},
	}}
}

// fiveByThree is 5 clips of 3s joined by 1s transitions: 11s total.
func fiveByThree(t *testing.T) *sequence.Plan {
	t.Helper()
	var clips []*models.Clip
	for i := 0; i < 5; i++ {
		clip, err := models.NewClip(i, filepath.Join("/work", "frame.png"), models.KindImage, 3)
		if err != nil {
			t.Fatal(err)
		}
		clips = append(clips, clip)
	}
	plan, err := sequence.BuildPlan(nil, clips, 1)
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func testOptions(t *testing.T) Options {
	dir := t.TempDir()
	return Options{
		Output:  filepath.Join(dir, "out", "show.mp4"),
		WorkDir: filepath.Join(dir, "work"),
		FPS:     24,
		Encoder: config.DefaultConfig().Encoder,
	}
}

// recorder fakes ffmpeg by writing every output file.
type recorder struct {
	ran    []command.TaskType
	failAt command.TaskType
}

func (r *recorder) run(ctx context.Context, cmd command.Command) error {
	r.ran = append(r.ran, cmd.GetTaskType())
	if err := os.WriteFile(cmd.GetOutputPath(), []byte("data"), 0644); err != nil {
		return err
	}
	if cmd.GetTaskType() == r.failAt {
		return errors.New("exit status 1")
	}
	return nil
}

func TestWrite_VideoOnly(t *testing.T) {
	opts := testOptions(t)
	rec := &recorder{}
	w := New(opts, fakeProber{})
	w.run = rec.run

	res, err := w.Write(context.Background(), fiveByThree(t), "[0:v]null[vout]")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if len(rec.ran) != 1 || rec.ran[0] != command.TaskTypeRender {
		t.Errorf("Expected a single render, got %v", rec.ran)
	}
	if res.Duration != 11 {
		t.Errorf("Expected 11s, got %f", res.Duration)
	}
	if res.Clips != 5 {
		t.Errorf("Expected 5 clips, got %d", res.Clips)
	}
	if res.Size != 4 {
		t.Errorf("Expected size 4, got %d", res.Size)
	}
	if res.HasSoundtrack {
		t.Error("Expected no soundtrack")
	}

	script, err := os.ReadFile(w.FilterScriptPath())
	if err != nil {
		t.Fatalf("Filter script not written: %v", err)
	}
	if string(script) != "[0:v]null[vout]" {
		t.Errorf("Unexpected filter script %q", script)
	}
}

func TestWrite_WithSoundtrack(t *testing.T) {
	opts := testOptions(t)
	opts.Soundtrack = "/music/song.mp3"
	opts.Title = "Summer"

	rec := &recorder{}
	w := New(opts, audioProbe("4.0"))
	w.run = rec.run

	var stages []models.RenderStage
	w.SetProgressCallback(func(stage models.RenderStage, p *models.EncodingProgress) {
		stages = append(stages, stage)
	})

	res, err := w.Write(context.Background(), fiveByThree(t), "graph")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []command.TaskType{command.TaskTypeRender, command.TaskTypeSoundtrack, command.TaskTypeMixing}
	if len(rec.ran) != len(want) {
		t.Fatalf("Expected %v, got %v", want, rec.ran)
	}
	for i := range want {
		if rec.ran[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], rec.ran[i])
		}
	}

	// 4s of audio for 11s of video: played 3 times, cut at 11s
	if res.Loops != 2 {
		t.Errorf("Expected 2 loops, got %d", res.Loops)
	}
	if !res.HasSoundtrack {
		t.Error("Expected soundtrack flag")
	}
	if len(stages) != 0 {
		t.Errorf("Fake runner should not report progress, got %v", stages)
	}
}

func TestCommands_SoundtrackPlan(t *testing.T) {
	opts := testOptions(t)
	opts.Soundtrack = "/music/song.mp3"

	tests := []struct {
		name     string
		duration string
		loops    int
	}{
		{"short track", "4.0", 2},
		{"long track", "300", 0},
		{"unknown length", "N/A", audio.LoopForever},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := New(opts, audioProbe(tt.duration)).Commands(context.Background(), fiveByThree(t))
			if err != nil {
				t.Fatalf("Commands failed: %v", err)
			}
			st, ok := cmds[1].(*audio.SoundtrackBuilder)
			if !ok {
				t.Fatalf("Expected soundtrack builder, got %T", cmds[1])
			}
			if st.Loops() != tt.loops {
				t.Errorf("Expected %d loops, got %d", tt.loops, st.Loops())
			}
			if cmds[2].GetOutputPath() != opts.Output {
				t.Errorf("Expected mix to write %s, got %s", opts.Output, cmds[2].GetOutputPath())
			}
			if cmds[0].GetOutputPath() == opts.Output {
				t.Error("Render should write to the work directory when mixing")
			}
		})
	}
}

func TestCommands_SoundtrackErrors(t *testing.T) {
	opts := testOptions(t)
	opts.Soundtrack = "/music/song.mp3"

	probers := map[string]fakeProber{
		"unreadable": {err: errors.New("invalid data found")},
		"no audio":   {result: &ffprobe.ProbeResult{Streams: []ffprobe.Stream{{CodecType: "video"}}}},
	}

	for name, prober := range probers {
		t.Run(name, func(t *testing.T) {
			_, err := New(opts, prober).Commands(context.Background(), fiveByThree(t))
			var rerr *models.RenderError
			if !errors.As(err, &rerr) {
				t.Fatalf("Expected RenderError, got %v", err)
			}
			if rerr.Stage != models.StageSoundtrack {
				t.Errorf("Expected soundtrack stage, got %s", rerr.Stage)
			}
		})
	}
}

func TestWrite_FailureRemovesPartialOutput(t *testing.T) {
	opts := testOptions(t)
	opts.Soundtrack = "/music/song.mp3"

	rec := &recorder{failAt: command.TaskTypeMixing}
	w := New(opts, audioProbe("20"))
	w.run = rec.run

	_, err := w.Write(context.Background(), fiveByThree(t), "graph")

	var rerr *models.RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected RenderError, got %v", err)
	}
	if rerr.Stage != models.StageMixing {
		t.Errorf("Expected mixing stage, got %s", rerr.Stage)
	}
	if _, err := os.Stat(opts.Output); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected partial output to be removed, stat err = %v", err)
	}
}

func TestWrite_KeepPartial(t *testing.T) {
	opts := testOptions(t)
	opts.KeepPartial = true

	rec := &recorder{failAt: command.TaskTypeRender}
	w := New(opts, fakeProber{})
	w.run = rec.run

	_, err := w.Write(context.Background(), fiveByThree(t), "graph")

	var rerr *models.RenderError
	if !errors.As(err, &rerr) || rerr.Stage != models.StageVideo {
		t.Fatalf("Expected video stage RenderError, got %v", err)
	}
	if _, err := os.Stat(opts.Output); err != nil {
		t.Errorf("Expected partial output to be kept: %v", err)
	}
}

func TestWrite_EmptyOutput(t *testing.T) {
	opts := testOptions(t)
	w := New(opts, fakeProber{})
	w.run = func(ctx context.Context, cmd command.Command) error {
		return os.WriteFile(cmd.GetOutputPath(), nil, 0644)
	}

	_, err := w.Write(context.Background(), fiveByThree(t), "graph")

	var rerr *models.RenderError
	if !errors.As(err, &rerr) || rerr.Stage != models.StageFinalize {
		t.Fatalf("Expected finalize stage RenderError, got %v", err)
	}
}

func TestWrite_EmptyPlan(t *testing.T) {
	w := New(testOptions(t), fakeProber{})

	var rerr *models.RenderError
	if _, err := w.Write(context.Background(), nil, "graph"); !errors.As(err, &rerr) {
		t.Errorf("Expected RenderError for nil plan, got %v", err)
	}
}
