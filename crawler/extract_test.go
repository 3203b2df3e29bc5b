package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tgddListingHTML = `<html><body>
<ul class="listproduct">
  <li class="item">
    <a href="/dtdd/iphone-15-pro-max">
      <img class="thumb" src="//cdn.tgdd.vn/iphone-15-pro-max.jpg">
      <h3>iPhone 15 Pro Max 256GB</h3>
      <strong class="price">29.990.000&#8363;</strong>
    </a>
  </li>
  <li class="item">
    <a href="https://www.thegioididong.com/dtdd/samsung-galaxy-s24">
      <img class="thumb" src="https://cdn.tgdd.vn/galaxy-s24.jpg">
      <h3>Samsung Galaxy S24 Ultra</h3>
      <strong class="price">26.490.000&#8363;</strong>
    </a>
  </li>
  <li class="item">
    <a href="/dtdd/no-name"><strong class="price">1.000.000&#8363;</strong></a>
  </li>
</ul>
</body></html>`

func TestExtractListing(t *testing.T) {
	products := ExtractListing(tgddListingHTML, "https://www.thegioididong.com/tim-kiem?key=iphone")
	require.Len(t, products, 2, "nameless rows must be skipped")

	first := products[0]
	assert.Equal(t, "iPhone 15 Pro Max 256GB", first.Name)
	assert.Equal(t, "Apple", first.Brand)
	assert.Equal(t, float64(29990000), first.MinPrice)
	assert.Equal(t, float64(29990000), first.MaxPrice)
	require.Len(t, first.Sources, 1)
	assert.Equal(t, "https://thegioididong.com/dtdd/iphone-15-pro-max", first.Sources[0].URL)
	require.Len(t, first.ImageURL, 1)
	assert.Contains(t, first.ImageURL[0], "cdn.tgdd.vn")
	assert.NotEmpty(t, first.ID)

	second := products[1]
	assert.Equal(t, "Samsung", second.Brand)
	assert.Equal(t, float64(26490000), second.MinPrice)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestExtractListingUnknownDomainUsesGenericSelectors(t *testing.T) {
	html := `<html><body>
	<div class="product-item">
	  <a class="product-link" href="/p/xiaomi-14"><h3 class="product-name">Xiaomi 14</h3></a>
	  <span class="price">15.990.000 VND</span>
	  <img class="product-image" src="/img/xiaomi-14.png">
	</div>
	</body></html>`

	products := ExtractListing(html, "https://hoanghamobile.com/dien-thoai")
	require.Len(t, products, 1)
	assert.Equal(t, "Xiaomi 14", products[0].Name)
	assert.Equal(t, "Xiaomi", products[0].Brand)
	assert.Equal(t, float64(15990000), products[0].MinPrice)
}

func TestExtractListingEmptyPage(t *testing.T) {
	assert.Empty(t, ExtractListing("<html><body><p>404</p></body></html>", "https://fptshop.com.vn/x"))
}

const tgddDetailHTML = `<html><body>
<meta itemprop="brand" content="Samsung">
<h1>Samsung Galaxy S24 Ultra 12GB 256GB</h1>
<div class="box-price"><p>26.490.000&#8363;</p></div>
<div class="owl-carousel">
  <img src="/images/s24-front.jpg">
  <img src="https://cdn.tgdd.vn/s24-back.jpg">
</div>
<div class="article-content">Flagship mới nhất của Samsung với bút S Pen.</div>
<div class="parameter">
  <table>
    <tr><td>Chip xử lý (CPU)</td><td>Snapdragon 8 Gen 3</td></tr>
    <tr><td>RAM</td><td>12 GB</td></tr>
    <tr><td>Bộ nhớ trong</td><td>256 GB</td></tr>
    <tr><td>Màn hình</td><td>6.8" Dynamic AMOLED 2X</td></tr>
    <tr><td>Pin</td><td>5000 mAh</td></tr>
    <tr><td>Chỉ số kháng nước</td><td>IP68</td></tr>
  </table>
</div>
</body></html>`

func TestExtractDetail(t *testing.T) {
	p := ExtractDetail(tgddDetailHTML, "https://www.thegioididong.com/dtdd/samsung-galaxy-s24-ultra")
	require.NotNil(t, p)

	assert.Equal(t, "Samsung Galaxy S24 Ultra 12GB 256GB", p.Name)
	assert.Equal(t, "Samsung", p.Brand)
	assert.Equal(t, float64(26490000), p.MinPrice)
	assert.Contains(t, p.Description, "S Pen")
	require.Len(t, p.ImageURL, 2)
	assert.Equal(t, "https://thegioididong.com/images/s24-front.jpg", p.ImageURL[0])
	assert.Equal(t, "https://cdn.tgdd.vn/s24-back.jpg", p.ImageURL[1])

	require.NotNil(t, p.Specifications)
	assert.Equal(t, "Snapdragon 8 Gen 3", p.Specifications.CPU)
	assert.Equal(t, "12 GB", p.Specifications.RAM)
	assert.Equal(t, "256 GB", p.Specifications.Storage)
	assert.Equal(t, "5000 mAh", p.Specifications.Battery)
	assert.Equal(t, "IP68", p.Specifications.AdditionalSpecs["chỉ số kháng nước"])
}

func TestExtractDetailNoName(t *testing.T) {
	assert.Nil(t, ExtractDetail("<html><body><div>trang không tồn tại</div></body></html>",
		"https://www.thegioididong.com/dtdd/gone"))
}

func TestExtractSpecificationsListItems(t *testing.T) {
	html := `<html><body>
	<h1 class="product-name">Oppo Reno11</h1>
	<p class="product-price--current">10.990.000 đ</p>
	<div class="product-technical-content">
	  <ul>
	    <li>Màn hình: 6.7" AMOLED</li>
	    <li>Camera sau: 50 MP</li>
	    <li>Hệ điều hành: Android 14</li>
	  </ul>
	</div>
	</body></html>`

	p := ExtractDetail(html, "https://cellphones.com.vn/oppo-reno11.html")
	require.NotNil(t, p)
	require.NotNil(t, p.Specifications)
	assert.Equal(t, `6.7" AMOLED`, p.Specifications.Display)
	assert.Equal(t, "50 MP", p.Specifications.Camera)
	assert.Equal(t, "Android 14", p.Specifications.OS)
}

func TestExtractSpecificationsPairedNodes(t *testing.T) {
	html := `<html><body>
	<h1 class="st-name">Vivo V30</h1>
	<div class="st-price">9.490.000 đ</div>
	<div class="st-param">
	  <span class="param-name">RAM</span><span class="param-value">12 GB</span>
	  <span class="param-name">Pin</span><span class="param-value">5000 mAh</span>
	</div>
	</body></html>`

	p := ExtractDetail(html, "https://fptshop.com.vn/dien-thoai/vivo-v30")
	require.NotNil(t, p)
	require.NotNil(t, p.Specifications)
	assert.Equal(t, "12 GB", p.Specifications.RAM)
	assert.Equal(t, "5000 mAh", p.Specifications.Battery)
}

func TestCanonicalSpecField(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Chip xử lý (CPU)", "cpu"},
		{"Vi xử lý", "cpu"},
		{"RAM", "ram"},
		{"Bộ nhớ trong", "storage"},
		{"Màn hình", "display"},
		{"Camera sau", "camera"},
		{"Dung lượng pin", "battery"},
		{"Hệ điều hành", "os"},
		{"Kết nối", "connectivity"},
		{"Màu sắc", "color"},
		{"Kích thước", "dimensions"},
		{"Trọng lượng", "weight"},
		{"Chất liệu khung", ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalSpecField(tt.label))
		})
	}
}

func TestPageText(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head><body>
	<nav>menu menu</nav>
	<script>var tracking = true;</script>
	<h1>iPhone 15</h1>
	<p>Giá tốt   nhất hôm nay</p>
	<footer>bản quyền</footer>
	</body></html>`

	text := PageText(html)
	assert.Contains(t, text, "iPhone 15")
	assert.Contains(t, text, "Giá tốt nhất hôm nay")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "menu menu")
	assert.NotContains(t, text, "bản quyền")
}
