package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Intake documents carry Jalali (Solar Hijri) dates in YYYY/MM/DD form.
// The conversion below follows the Khayyam 33-year cycle arithmetic used by
// the jalaali reference implementations.

var jalaliBreaks = []int{
	-61, 9, 38, 199, 426, 686, 756, 818, 1111, 1181, 1210,
	1635, 2060, 2097, 2192, 2262, 2324, 2394, 2456, 3178,
}

// parseJalaliDate parses "YYYY/MM/DD" Jalali into a Gregorian time.Time (UTC).
func parseJalaliDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid jalali date %q", s)
	}

	jy, err1 := strconv.Atoi(parts[0])
	jm, err2 := strconv.Atoi(parts[1])
	jd, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("invalid jalali date %q", s)
	}
	if jm < 1 || jm > 12 || jd < 1 || jd > 31 {
		return time.Time{}, fmt.Errorf("jalali date %q out of range", s)
	}

	jdn, err := jalaliToJDN(jy, jm, jd)
	if err != nil {
		return time.Time{}, err
	}
	gy, gm, gd := jdnToGregorian(jdn)
	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC), nil
}

// jalaliToJDN converts a Jalali date to a Julian day number.
func jalaliToJDN(jy, jm, jd int) (int, error) {
	leapOffset, gy, err := jalaliCycle(jy)
	if err != nil {
		return 0, err
	}

	jdn := gregorianToJDN(gy, 3, leapOffset)
	if jm <= 7 {
		jdn += (jm - 1) * 31
	} else {
		jdn += (jm-1)*30 + 6
	}
	return jdn + jd - 1, nil
}

// jalaliCycle locates jy inside the break-point table and returns the March
// day of the Jalali new year plus the matching Gregorian year.
func jalaliCycle(jy int) (march, gy int, err error) {
	if jy < jalaliBreaks[0] || jy >= jalaliBreaks[len(jalaliBreaks)-1] {
		return 0, 0, fmt.Errorf("jalali year %d out of supported range", jy)
	}

	gy = jy + 621
	leapJ := -14
	jp := jalaliBreaks[0]

	for _, jb := range jalaliBreaks[1:] {
		jump := jb - jp
		if jy < jb {
			n := jy - jp
			leapJ += n/33*8 + (n%33+3)/4
			if jump%33 == 4 && jump-n == 4 {
				leapJ++
			}
			leapG := gy/4 - (gy/100+1)*3/4 - 150
			march = 20 + leapJ - leapG
			return march, gy, nil
		}
		leapJ += jump/33*8 + jump%33/4
		jp = jb
	}

	return 0, 0, fmt.Errorf("jalali year %d out of supported range", jy)
}

// gregorianToJDN converts a Gregorian date to a Julian day number.
func gregorianToJDN(gy, gm, gd int) int {
	d := (gy+(gm-8)/6+100100)*1461/4 +
		(153*((gm+9)%12)+2)/5 +
		gd - 34840408
	d = d - (gy+100100+(gm-8)/6)/100*3/4 + 752
	return d
}

// jdnToGregorian converts a Julian day number to a Gregorian date.
func jdnToGregorian(jdn int) (gy, gm, gd int) {
	j := 4*jdn + 139361631
	j = j + (4*jdn+183187720)/146097*3/4*4 - 3908
	i := j%1461/4*5 + 308

	gd = i%153/5 + 1
	gm = i/153%12 + 1
	gy = j/1461 - 100100 + (8-gm)/6
	return gy, gm, gd
}
