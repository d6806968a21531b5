// Package audiofile decodes audio files into flat interleaved float32 PCM.
//
// It is the engine's decoder boundary: every decoder hands back a PCM value
// holding the full amplitude buffer plus its channel count, sample rate, and
// frame count, which maps directly onto engine.CreateSample. Supported
// formats are WAV (16/24/32-bit PCM), MP3, and Ogg Vorbis.
package audiofile
