package main

// timeoutBody is the page http.TimeoutHandler serves once a handler has missed its deadline. It is static, so it
// carries no script and needs no nonce.
const timeoutBody = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>GymPal is slow right now</title></head>
<body>
<h1>Request timed out</h1>
<p>GymPal took too long to answer.</p>
<p><a href="">Try again</a></p>
</body>
</html>
`
