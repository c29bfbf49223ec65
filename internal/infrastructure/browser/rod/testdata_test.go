package rod

// Pages served to browser tests.
const (
	SearchHTML = `<!DOCTYPE html>
<html>
<head><title>Shop</title></head>
<body>
	<input id="q" type="text" placeholder="Search" />
	<button id="go" onclick="document.getElementById('out').textContent = 'searched ' + document.getElementById('q').value">Search</button>
	<a href="/product">Laptop</a>
	<div id="out"></div>
	<div style="display:none"><button>Hidden</button></div>
</body>
</html>`

	ProductHTML = `<!DOCTYPE html>
<html>
<head><title>Laptop</title></head>
<body>
	<h1>Laptop</h1>
	<p>Price: $10</p>
</body>
</html>`

	ScrollableHTML = `<!DOCTYPE html>
<html>
<head><title>Long</title></head>
<body style="height: 5000px;">
	<h1 id="top">Top of Page</h1>
</body>
</html>`
)
