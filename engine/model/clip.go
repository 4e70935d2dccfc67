package model

import (
	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
)

// ChannelFromTrack converts a baked track into keyframe form.
//
// Parameters:
//   - target: the name of the animated bone or spatial
//   - track: the baked track
//
// Returns:
//   - AnimationChannel: one position, rotation and scale key per track keyframe
func ChannelFromTrack(target string, track *animation.Track) AnimationChannel {
	n := track.Len()
	ch := AnimationChannel{
		BoneIndex:    int32(track.BoneIndex()),
		Target:       target,
		PositionKeys: make([]VectorKeyframe, n),
		RotationKeys: make([]QuaternionKeyframe, n),
		ScaleKeys:    make([]VectorKeyframe, n),
	}
	for i := range n {
		t := track.TimeAt(i)
		kf := TransformFromAnimation(track.TransformAt(i))
		ch.PositionKeys[i] = VectorKeyframe{Time: t, Value: kf.Translation}
		ch.RotationKeys[i] = QuaternionKeyframe{Time: t, Value: kf.Rotation}
		ch.ScaleKeys[i] = VectorKeyframe{Time: t, Value: kf.Scale}
	}
	return ch
}

// NewAnimationClip assembles a clip from named baked tracks. The clip lasts as long as its longest track.
//
// Parameters:
//   - name: the clip name
//   - fps: the rate the tracks were baked at
//   - tracks: the baked tracks with the names of what they animate
//
// Returns:
//   - *AnimationClip: the clip
func NewAnimationClip(name string, fps int, tracks []animation.NamedTrack) *AnimationClip {
	clip := &AnimationClip{
		Name:           name,
		TicksPerSecond: float32(fps),
		Channels:       make([]AnimationChannel, 0, len(tracks)),
	}
	for _, nt := range tracks {
		clip.Channels = append(clip.Channels, ChannelFromTrack(nt.Feature, nt.Track))
		clip.Duration = max(clip.Duration, nt.Track.Duration())
	}
	return clip
}

// KeyframeCount returns the number of position keys over all channels.
func (c *AnimationClip) KeyframeCount() int {
	n := 0
	for _, ch := range c.Channels {
		n += len(ch.PositionKeys)
	}
	return n
}
