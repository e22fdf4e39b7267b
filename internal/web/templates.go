package web

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>byline</title>
  <style>
    body { font-family: Georgia, serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #222; }
    h1 { font-size: 1.6rem; }
    .article { margin: 1.5rem 0; }
    .article a { font-size: 1.1rem; color: #1a4d8f; text-decoration: none; }
    .article a:hover { text-decoration: underline; }
    .meta { color: #777; font-size: 0.85rem; }
    .empty { color: #777; font-style: italic; }
  </style>
</head>
<body>
  <h1>byline</h1>
  {{if .Articles}}
    {{range .Articles}}
    <div class="article">
      <a href="/article/{{.ID}}">{{.Title}}</a>
      <div class="meta">{{.TargetLength}} &middot; {{.ResearchScope}} research &middot; {{.UpdatedAt.Format "2 Jan 2006"}}</div>
    </div>
    {{end}}
  {{else}}
    <p class="empty">No finished articles yet.</p>
  {{end}}
</body>
</html>
`))

var articleTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Article.Title}}</title>
  <style>
    body { font-family: Georgia, serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #222; line-height: 1.6; }
    .meta { color: #777; font-size: 0.85rem; margin-bottom: 2rem; }
    a { color: #1a4d8f; }
    pre { background: #f6f6f6; padding: 1rem; overflow-x: auto; }
    blockquote { border-left: 3px solid #ddd; margin-left: 0; padding-left: 1rem; color: #555; }
  </style>
</head>
<body>
  <p><a href="/">&larr; All articles</a></p>
  <div class="meta">{{.Article.TargetLength}} &middot; {{.Article.ResearchScope}} research &middot; {{.Article.UpdatedAt.Format "2 Jan 2006"}}</div>
  {{.Content}}
</body>
</html>
`))
