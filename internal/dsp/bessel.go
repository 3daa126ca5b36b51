package dsp

// besselTable holds 1 / (k! * 2^k)^2 for k = 0..19, the coefficients of the
// power series of the zeroth-order modified Bessel function of the first
// kind.
var besselTable = [20]float64{
	1.0,
	0.25,
	0.015625,
	0.00043402777777777775,
	6.781684027777777e-06,
	6.781684027777778e-08,
	4.709502797067901e-10,
	2.4028075495244395e-12,
	9.385966990329842e-15,
	2.896903392077112e-17,
	7.242258480192779e-20,
	1.4963343967340453e-22,
	2.5978027721077174e-25,
	3.842903509035085e-28,
	4.9016626390753635e-31,
	5.4462918211948485e-34,
	5.318644356635594e-37,
	4.60090342269515e-40,
	3.5500798014623073e-43,
	2.458504017633177e-46,
}

// besselI0 evaluates the zeroth-order modified Bessel function of the first
// kind, I0(x), via its power series truncated at 8 terms. That is enough for
// the argument range a Kaiser window produces (beta below ~10) at the
// precision the filters need.
func besselI0(x float64) float64 {
	const terms = 8

	result := 0.0
	x2 := x * x
	for k := terms; k >= 1; k-- {
		result += besselTable[k]
		result *= x2
	}
	return result + 1
}
