// Package web holds the embedded single-page listener UI.
package web

// IndexHTML is the full listener page. Served from memory; no assets on
// disk so the binary stays self-contained.
var IndexHTML = []byte(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>stillwave</title>
<style>
  :root {
    --bg: #0d1117; --panel: #161b22; --ink: #c9d1d9; --dim: #8b949e;
    --accent: #7ee8c7; --line: #30363d;
  }
  * { box-sizing: border-box; }
  body {
    margin: 0; background: var(--bg); color: var(--ink);
    font: 15px/1.5 "Helvetica Neue", Arial, sans-serif;
    display: flex; justify-content: center; min-height: 100vh;
  }
  main { width: min(560px, 94vw); padding: 2.5rem 0 4rem; }
  h1 { font-weight: 300; letter-spacing: 0.35em; color: var(--accent);
       text-align: center; font-size: 1.4rem; margin-bottom: 2rem; }
  .panel { background: var(--panel); border: 1px solid var(--line);
           border-radius: 10px; padding: 1.25rem; margin-bottom: 1rem; }
  label { display: block; color: var(--dim); font-size: 0.8rem;
          text-transform: uppercase; letter-spacing: 0.1em; margin: 0.75rem 0 0.25rem; }
  input, select {
    width: 100%; padding: 0.5rem 0.7rem; background: var(--bg);
    border: 1px solid var(--line); border-radius: 6px; color: var(--ink);
  }
  button {
    padding: 0.55rem 1.2rem; margin: 1rem 0.4rem 0 0; cursor: pointer;
    background: var(--accent); color: #06251c; border: none;
    border-radius: 6px; font-weight: 600;
  }
  button.ghost { background: transparent; color: var(--accent);
                 border: 1px solid var(--accent); }
  #now { text-align: center; }
  #title { font-size: 1.2rem; margin: 0.25rem 0; }
  #meta, #listeners { color: var(--dim); font-size: 0.85rem; }
  #script { color: var(--dim); font-style: italic; margin-top: 0.75rem;
            font-size: 0.9rem; }
  audio { width: 100%; margin-top: 0.75rem; }
</style>
</head>
<body>
<main>
  <h1>stillwave</h1>

  <div class="panel" id="now">
    <div id="title">&mdash;</div>
    <div id="meta"></div>
    <div id="script"></div>
    <audio id="player" controls preload="none" src="/stream"></audio>
    <div id="listeners"></div>
  </div>

  <div class="panel">
    <label for="intention">intention</label>
    <input id="intention" placeholder="deep rest before sleep" maxlength="200">
    <label for="style">soundscape</label>
    <select id="style"></select>
    <label for="mode">affirmation mode</label>
    <select id="mode">
      <option value="conscious">conscious</option>
      <option value="subliminal">subliminal</option>
      <option value="silent">silent</option>
    </select>
    <label for="duration">length (minutes)</label>
    <input id="duration" type="number" min="1" max="60" value="5">
    <button id="begin">begin session</button>
    <button id="skip" class="ghost">skip</button>
    <button id="download" class="ghost">download</button>
  </div>
</main>
<script>
const $ = id => document.getElementById(id);

async function loadStyles() {
  const r = await fetch('/api/styles');
  const styles = await r.json();
  $('style').innerHTML = styles.map(s => '<option>' + s + '</option>').join('');
}

async function refresh() {
  try {
    const r = await fetch('/api/status');
    const s = await r.json();
    $('title').textContent = s.session_title || '—';
    $('meta').textContent = s.session_title
      ? s.style + ' · ' + s.mode + ' · loop ' + Math.round(s.duration) + 's'
      : '';
    $('script').textContent = s.script || '';
    $('listeners').textContent =
      (s.http_listeners + s.webrtc_listeners) + ' listening';
  } catch (e) { /* server restarting */ }
}

$('begin').onclick = async () => {
  await fetch('/api/session', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({
      intention: $('intention').value.trim(),
      style: $('style').value,
      mode: $('mode').value,
      duration: Number($('duration').value) * 60,
    }),
  });
};

$('skip').onclick = () => fetch('/api/skip', {method: 'POST'});
$('download').onclick = () => { location.href = '/api/download'; };

loadStyles();
refresh();
setInterval(refresh, 3000);
</script>
</body>
</html>
`)
