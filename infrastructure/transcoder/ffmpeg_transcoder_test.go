package transcoder

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"clipstream/domain/ports"
)

func TestBuildTranscodeArgs(t *testing.T) {
	profile := ports.DefaultOutputProfile()
	args := buildTranscodeArgs("/tmp/in.mov", "/tmp/out.mp4", profile, false)

	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-i /tmp/in.mov",
		"-c:v libx264",
		"-preset medium",
		"-crf 23",
		"-vf scale=-2:720",
		"-c:a aac",
		"-b:a 128k",
		"-movflags +faststart",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	if strings.Contains(joined, "-progress") {
		t.Errorf("progress flag present without callback: %s", joined)
	}

	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("output path must be last arg, got %q", args[len(args)-1])
	}
}

func TestBuildTranscodeArgsWithProgress(t *testing.T) {
	args := buildTranscodeArgs("in.mp4", "out.mp4", ports.DefaultOutputProfile(), true)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-progress pipe:1") {
		t.Errorf("expected -progress pipe:1 in %s", joined)
	}
}

func TestBuildThumbnailArgs(t *testing.T) {
	args := buildThumbnailArgs("in.mp4", "thumb.jpg", 30)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-ss 30",
		"-vframes 1",
		"-vf scale=1280:-1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestParseProgress(t *testing.T) {
	input := strings.Join([]string{
		"frame=100",
		"out_time_us=5000000",
		"progress=continue",
		"out_time_us=5000000", // duplicate percent, no extra callback
		"out_time_us=30000000",
		"out_time_us=90000000", // past the end, clamped
		"progress=end",
	}, "\n")

	var got []int
	parseProgress(context.Background(), strings.NewReader(input), 60, func(percent int) {
		got = append(got, percent)
	})

	want := []int{8, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRunWithProgressDrainsCallbacksBeforeReturn(t *testing.T) {
	tr := &FFmpegTranscoder{}
	cmd := exec.Command("sh", "-c", `printf 'out_time_us=30000000\nout_time_us=60000000\n'`)

	// No synchronization on the slice: a callback delivered after
	// runWithProgress returns is a data race and a lost progress update.
	var got []int
	err := tr.runWithProgress(context.Background(), cmd, 60, func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("runWithProgress: %v", err)
	}

	want := []int{50, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParseProgressZeroDuration(t *testing.T) {
	called := false
	parseProgress(context.Background(), strings.NewReader("out_time_us=1000000\n"), 0, func(int) {
		called = true
	})
	if called {
		t.Error("no callbacks expected when total duration is unknown")
	}
}

func TestMediaInfoFromProbe(t *testing.T) {
	tests := []struct {
		name         string
		probe        ffprobeOutput
		wantDuration int
		wantRes      string
		wantErr      bool
	}{
		{
			name: "normal video",
			probe: ffprobeOutput{
				Format: ffprobeFormat{Duration: "29.97"},
				Streams: []ffprobeStream{
					{CodecType: "audio", CodecName: "aac"},
					{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
				},
			},
			wantDuration: 30,
			wantRes:      "1920x1080",
		},
		{
			name: "duration rounds down",
			probe: ffprobeOutput{
				Format: ffprobeFormat{Duration: "12.4"},
				Streams: []ffprobeStream{
					{CodecType: "video", Width: 640, Height: 360},
				},
			},
			wantDuration: 12,
			wantRes:      "640x360",
		},
		{
			name: "audio only",
			probe: ffprobeOutput{
				Format: ffprobeFormat{Duration: "180.0"},
				Streams: []ffprobeStream{
					{CodecType: "audio", CodecName: "mp3"},
				},
			},
			wantErr: true,
		},
		{
			name:    "no streams",
			probe:   ffprobeOutput{Format: ffprobeFormat{Duration: "10"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := mediaInfoFromProbe(&tt.probe)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.DurationSeconds != tt.wantDuration {
				t.Errorf("duration = %d, want %d", info.DurationSeconds, tt.wantDuration)
			}
			if info.Resolution() != tt.wantRes {
				t.Errorf("resolution = %s, want %s", info.Resolution(), tt.wantRes)
			}
		})
	}
}

func TestLastStderrLines(t *testing.T) {
	long := strings.Repeat("noise\n", 30) + "real error"
	got := lastStderrLines(long, 20)
	if !strings.HasSuffix(got, "real error") {
		t.Errorf("tail lost the final line: %q", got)
	}
	if strings.Count(got, "\n") != 19 {
		t.Errorf("expected 20 lines, got %d", strings.Count(got, "\n")+1)
	}

	if lastStderrLines("  \n ", 5) != "" {
		t.Error("blank stderr should yield empty string")
	}
}
