package segmenter

// segmentationPrompt is sent verbatim (with {lyrics} substituted) to the LLM
// for a single-track segmentation request.
const segmentationPrompt = `You are analyzing song lyrics to identify emotionally meaningful segments for a mood-based music discovery app.

Lyrics (with line numbers):
{lyrics}

Your task:
1. Identify the song's overall genre
2. Break the lyrics into 2-5 emotionally coherent segments, each covering a contiguous range of lines
3. For each segment, write a natural-language description of the feeling/mood it evokes (for embedding-based search, not a summary of the words)

Important:
- Segments must not overlap and must be in line order
- ai_description should describe the EMOTION, not restate the lyrics
  WRONG: "The singer talks about missing someone and wanting them back"
  RIGHT: "Longing and desire for connection, aching to be understood"
- Do not start ai_description with "This segment" or similar phrases
- primary_emotion is a short phrase (1-3 words)
- secondary_emotion is optional, omit if there isn't a clear second emotion
- energy must be one of: low, medium, high, very-high
- tone is a short phrase describing the song's overall character at that point

Output valid JSON only, in this exact shape:
{
  "genre": "<genre>",
  "segments": [
    {
      "start_line": <int>,
      "end_line": <int>,
      "lyrics": "<verbatim lyrics for this range>",
      "ai_description": "<emotional description>",
      "primary_emotion": "<emotion>",
      "secondary_emotion": "<emotion or omit>",
      "energy": "<low|medium|high|very-high>",
      "tone": "<tone>"
    }
  ]
}`

// batchedSegmentationPrompt is sent verbatim (with {songs_section} substituted)
// when segmenting several tracks in a single LLM call.
const batchedSegmentationPrompt = `You are analyzing song lyrics to identify emotionally meaningful segments for a mood-based music discovery app.

You will be given several songs. Process each one independently and return results for all of them.

{songs_section}

For each song:
1. Identify the song's overall genre
2. Break the lyrics into 2-5 emotionally coherent segments, each covering a contiguous range of lines
3. For each segment, write a natural-language description of the feeling/mood it evokes (for embedding-based search, not a summary of the words)

Important:
- Segments must not overlap and must be in line order
- ai_description should describe the EMOTION, not restate the lyrics
  WRONG: "The singer talks about missing someone and wanting them back"
  RIGHT: "Longing and desire for connection, aching to be understood"
- Do not start ai_description with "This segment" or similar phrases
- primary_emotion is a short phrase (1-3 words)
- secondary_emotion is optional, omit if there isn't a clear second emotion
- energy must be one of: low, medium, high, very-high
- tone is a short phrase describing the song's overall character at that point
- If a song cannot be processed, include it with an "error" field instead of "segments"

Output valid JSON only, in this exact shape:
{
  "songs": [
    {
      "song_index": <int>,
      "genre": "<genre>",
      "segments": [
        {
          "start_line": <int>,
          "end_line": <int>,
          "lyrics": "<verbatim lyrics for this range>",
          "ai_description": "<emotional description>",
          "primary_emotion": "<emotion>",
          "secondary_emotion": "<emotion or omit>",
          "energy": "<low|medium|high|very-high>",
          "tone": "<tone>"
        }
      ]
    }
  ]
}`
