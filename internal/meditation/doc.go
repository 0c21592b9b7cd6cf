// Package meditation renders guided meditations: a voice track laid over an
// ambient bed that is time-stretched to the voice length.
//
// Three entry points build on each other. RenderAudio mixes an existing
// voice recording. RenderText synthesizes the voice first. RenderWorry asks
// a language model for the script and then renders it as text.
package meditation
